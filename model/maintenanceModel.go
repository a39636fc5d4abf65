// model/maintenance.go
package model

import "time"

type MaintenanceStatus string

const (
	MaintenanceScheduled  MaintenanceStatus = "scheduled"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
)

type MaintenanceType string

const (
	MaintenanceRoutine      MaintenanceType = "routine"
	MaintenanceDamageRepair MaintenanceType = "damage_repair"
	MaintenanceSafetyCheck  MaintenanceType = "safety_check"
	MaintenanceOther        MaintenanceType = "other"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenanceRoutine, MaintenanceDamageRepair, MaintenanceSafetyCheck, MaintenanceOther:
		return true
	}
	return false
}

type Maintenance struct {
	ID          int64             `json:"id"`
	BikeID      int64             `json:"bike_id"`
	BikeName    string            `json:"bike_name,omitempty"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Type        MaintenanceType   `json:"type"`
	Description string            `json:"description"`
	Status      MaintenanceStatus `json:"status"`
}

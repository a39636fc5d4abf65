package auth

import (
	"context"
	"errors"
	"strings"

	"bikerental/model"
	authrepo "bikerental/repository/auth"
	"bikerental/util/hash"
	jwtutil "bikerental/util/jwt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ErrCode string

const (
	ErrBadInput     ErrCode = "BAD_INPUT"
	ErrEmailTaken   ErrCode = "EMAIL_TAKEN"
	ErrInvalidCreds ErrCode = "INVALID_CREDENTIALS"
	ErrDisabled     ErrCode = "ACCOUNT_DISABLED"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode) error          { return codedError{code: c} }
func wrap(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	// EnsureAdmin creates or promotes the bootstrap admin account.
	EnsureAdmin(ctx context.Context, email, password string) (*model.User, error)
}

type service struct {
	r        authrepo.Repo
	secret   string
	ttlHours int
}

func New(r authrepo.Repo, secret string, ttlHours int) Service {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &service{r: r, secret: secret, ttlHours: ttlHours}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	email := normalizeEmail(req.Email)
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if email == "" || first == "" || last == "" || len(req.Password) < 6 {
		return nil, "", makeErr(ErrBadInput)
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return nil, "", wrap(ErrBadInput, "passwords do not match")
	}

	existing, err := s.r.ByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", makeErr(ErrEmailTaken)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		Status:       model.UserActive,
	}
	if err := s.r.Create(ctx, u); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, "", derr
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// the pre-check above races with concurrent signups; the unique index is authoritative
func mapDuplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		cn := strings.ToLower(pgErr.ConstraintName)
		if strings.Contains(cn, "users_email") || strings.Contains(strings.ToLower(pgErr.Message), "email") {
			return makeErr(ErrEmailTaken)
		}
		return makeErr(ErrBadInput)
	}
	return nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", makeErr(ErrBadInput)
	}

	u, err := s.r.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", makeErr(ErrInvalidCreds)
		}
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", makeErr(ErrInvalidCreds)
	}
	if u.Status == model.UserDisabled {
		return nil, "", makeErr(ErrDisabled)
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) EnsureAdmin(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 6 {
		return nil, makeErr(ErrBadInput)
	}
	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		FirstName:    "Admin",
		LastName:     "User",
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
		Status:       model.UserActive,
	}
	if err := s.r.UpsertAdmin(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

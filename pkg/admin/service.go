package admin

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tripwell/tripwell-go/pkg/api"
	"github.com/tripwell/tripwell-go/pkg/session"
)

// Service issues admin API calls through the session client. The server
// rejects these for non-admin roles; the rejection surfaces as a validation
// error.
type Service struct {
	client *session.Client
	log    *zap.Logger
}

// Option adjusts service construction.
type Option func(*Service)

// WithLogger wires a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService builds an admin service on top of client.
func NewService(client *session.Client, opts ...Option) *Service {
	s := &Service{client: client, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateCode issues a one-time sign-up code for roleID.
func (s *Service) GenerateCode(ctx context.Context, roleID int) (SignupCode, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodPost,
		Path:   api.PathGenerateSignupCode,
		Body:   map[string]int{"roleId": roleID},
	})
	if err != nil {
		return SignupCode{}, err
	}
	code, err := api.DecodeData[SignupCode](resp)
	if err != nil {
		return SignupCode{}, err
	}
	s.log.Info("sign-up code generated",
		zap.Int("code_id", code.ID), zap.Int("role_id", roleID))
	return code, nil
}

// Codes lists all issued sign-up codes, consumed ones included.
func (s *Service) Codes(ctx context.Context) ([]SignupCode, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodGet,
		Path:   api.PathSignupCodes,
	})
	if err != nil {
		return nil, err
	}
	return api.DecodeData[[]SignupCode](resp)
}

// DeleteCode revokes an unused sign-up code.
func (s *Service) DeleteCode(ctx context.Context, id int) error {
	_, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodDelete,
		Path:   api.SignupCodePath(id),
	})
	if err != nil {
		return err
	}
	s.log.Info("sign-up code deleted", zap.Int("code_id", id))
	return nil
}

// Roles fetches the role catalogue used when issuing codes.
func (s *Service) Roles(ctx context.Context) ([]Role, error) {
	resp, err := s.client.Do(ctx, &session.Request{
		Method: http.MethodGet,
		Path:   api.PathRoles,
	})
	if err != nil {
		return nil, err
	}
	return api.DecodeData[[]Role](resp)
}

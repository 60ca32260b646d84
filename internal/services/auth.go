package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

// fallbackPIN is what the backend's PIN step receives when the
// credential has no PIN of its own.
const fallbackPIN = "1234"

type Authenticator struct {
	API *Client
}

// Authenticate logs in with cred, completing the PIN step if the
// backend asks for it.
func (a *Authenticator) Authenticate(ctx context.Context, cred model.AgentCredential, logger *zap.SugaredLogger) (model.Session, error) {
	resp, err := a.API.postJSON(ctx, "/api/auth/login", map[string]string{
		"username": cred.Username,
		"password": cred.Password,
	})
	if err != nil && resp == nil {
		return model.Session{}, fmt.Errorf("%w: login request: %v", ErrAuth, err)
	}

	if token := resp.Str("token"); token != "" {
		return model.Session{
			Token:     token,
			TheaterID: firstNonEmpty(resp.Str("user.theaterId"), cred.TheaterID),
			Label:     cred.Label,
		}, nil
	}

	pending := resp.Obj("pendingAuth")
	if !resp.Bool("isPinRequired") || pending == nil {
		return model.Session{}, fmt.Errorf("%w: login returned no token: %s", ErrAuth, describe(resp, err))
	}

	pin := cred.PIN
	if pin == "" {
		logger.Warnf("PIN required but none configured, falling back to the default PIN")
		pin = fallbackPIN
	}
	logger.Infof("PIN required, validating...")

	pinResp, err := a.API.postJSON(ctx, "/api/auth/validate-pin", map[string]string{
		"userId":        pending.Str("userId"),
		"pin":           pin,
		"theaterId":     pending.Str("theaterId"),
		"_tempPassword": cred.Password,
		"loginUsername": cred.Username,
	})
	if err != nil && pinResp == nil {
		return model.Session{}, fmt.Errorf("%w: pin request: %v", ErrAuth, err)
	}

	token := pinResp.Str("token")
	if !pinResp.Bool("success") || token == "" {
		return model.Session{}, fmt.Errorf("%w: pin validation failed: %s", ErrAuth, describe(pinResp, err))
	}
	return model.Session{
		Token:     token,
		TheaterID: firstNonEmpty(pinResp.Str("user.theaterId"), pending.Str("theaterId"), cred.TheaterID),
		Label:     cred.Label,
	}, nil
}

// describe picks the most useful explanation out of a failed reply.
func describe(resp model.Doc, err error) string {
	if msg := resp.Str("error", "message"); msg != "" {
		return msg
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return "unexpected response"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

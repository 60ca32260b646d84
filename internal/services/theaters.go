package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

type TheaterResolver struct {
	API *Client
}

// Resolve returns the theaters a session serves, in server order. A
// session bound to a theater serves exactly that one; a super-admin
// session serves every theater the backend lists.
func (r *TheaterResolver) Resolve(ctx context.Context, s model.Session, logger *zap.SugaredLogger) ([]model.TheaterBinding, error) {
	if s.Scoped() {
		return []model.TheaterBinding{{
			TheaterID: s.TheaterID,
			Name:      s.Label,
			Session:   s,
		}}, nil
	}

	logger.Infof("No theater bound to session, fetching theater list...")
	resp, err := r.API.getJSON(ctx, "/api/theaters", s.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching theaters: %v", ErrScope, err)
	}

	list := resp.List("data")
	if list == nil {
		list = resp.List("theaters")
	}

	var bindings []model.TheaterBinding
	for i, raw := range list {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		theater := model.Doc(m)
		id := theater.Str("_id", "id")
		if id == "" {
			logger.Warnf("Skipping theater #%d without an id", i+1)
			continue
		}
		name := theater.Str("name")
		if name == "" {
			name = fmt.Sprintf("Theater-%d", i+1)
		}
		bindings = append(bindings, model.TheaterBinding{TheaterID: id, Name: name, Session: s})
	}

	if len(bindings) == 0 {
		return nil, fmt.Errorf("%w: backend returned an empty theater list", ErrScope)
	}
	logger.Infof("Serving %d theaters", len(bindings))
	return bindings, nil
}

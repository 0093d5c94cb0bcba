package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"spacewars/internal/apperr"
	"spacewars/internal/colony"
	ilog "spacewars/internal/log"
	"spacewars/internal/pvp"
	"spacewars/internal/salvage"
)

type action func(r *http.Request, playerID int64) (any, error)

type HandlerI struct {
	svc     Services
	auth    *Authenticator
	limiter *RateLimiter
	logger  *zap.SugaredLogger
}

func NewHandlerI(svc Services, auth *Authenticator, limiter *RateLimiter) *HandlerI {
	if limiter == nil {
		limiter = NewRateLimiter(0, 1)
	}
	return &HandlerI{svc: svc, auth: auth, limiter: limiter, logger: ilog.Component("api")}
}

func (h *HandlerI) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Response{Status: "ok"})
	})

	if p := h.svc.Pirates; p != nil {
		h.handle(mux, "/v1/pirates/preview", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			enc, err := formID(r, "encounter_id")
			if err != nil {
				return nil, err
			}
			return p.Preview(r.Context(), id, enc)
		})
		h.handle(mux, "/v1/pirates/escape", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			enc, err := formID(r, "encounter_id")
			if err != nil {
				return nil, err
			}
			return p.Escape(r.Context(), id, enc)
		})
		h.handle(mux, "/v1/pirates/fight", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			enc, err := formID(r, "encounter_id")
			if err != nil {
				return nil, err
			}
			return p.Fight(r.Context(), id, enc)
		})
		h.handle(mux, "/v1/pirates/surrender", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			enc, err := formID(r, "encounter_id")
			if err != nil {
				return nil, err
			}
			return p.Surrender(r.Context(), id, enc)
		})
	}

	if s := h.svc.Salvage; s != nil {
		h.handle(mux, "/v1/salvage", http.MethodGet, func(r *http.Request, id int64) (any, error) {
			uuid, err := formString(r, "combat_session")
			if err != nil {
				return nil, err
			}
			return s.List(r.Context(), id, uuid)
		})
		h.handle(mux, "/v1/salvage/transfer", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			uuid, err := formString(r, "combat_session")
			if err != nil {
				return nil, err
			}
			sel, err := parseSelection(r)
			if err != nil {
				return nil, err
			}
			return s.Transfer(r.Context(), id, uuid, sel)
		})
	}

	if p := h.svc.PvP; p != nil {
		h.routes(mux, "/v1/pvp/challenges", map[string]action{
			http.MethodGet: func(r *http.Request, id int64) (any, error) {
				if c := strings.TrimSpace(r.FormValue("challenge")); c != "" {
					return p.Get(r.Context(), id, c)
				}
				return p.ListPending(r.Context(), id)
			},
			http.MethodPost: func(r *http.Request, id int64) (any, error) {
				target, err := formID(r, "target_id")
				if err != nil {
					return nil, err
				}
				wager, err := optionalInt(r, "wager")
				if err != nil {
					return nil, err
				}
				size, err := optionalInt(r, "max_team_size")
				if err != nil {
					return nil, err
				}
				return p.Issue(r.Context(), pvp.IssueRequest{
					ChallengerID: id,
					TargetID:     target,
					Message:      strings.TrimSpace(r.FormValue("message")),
					Wager:        wager,
					MaxTeamSize:  int(size),
				})
			},
		})
		h.handle(mux, "/v1/pvp/challenges/accept", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			c, err := formString(r, "challenge")
			if err != nil {
				return nil, err
			}
			return p.Accept(r.Context(), id, c)
		})
		h.handle(mux, "/v1/pvp/challenges/decline", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			c, err := formString(r, "challenge")
			if err != nil {
				return nil, err
			}
			return p.Decline(r.Context(), id, c)
		})
		h.handle(mux, "/v1/pvp/challenges/cancel", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			c, err := formString(r, "challenge")
			if err != nil {
				return nil, err
			}
			return p.Cancel(r.Context(), id, c)
		})
		h.handle(mux, "/v1/pvp/invitations", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			c, err := formString(r, "challenge")
			if err != nil {
				return nil, err
			}
			invitee, err := formID(r, "invitee_id")
			if err != nil {
				return nil, err
			}
			side, err := formString(r, "side")
			if err != nil {
				return nil, err
			}
			return p.Invite(r.Context(), pvp.InviteRequest{
				ChallengeUUID: c, InviterID: id, InviteeID: invitee, Side: strings.ToLower(side),
			})
		})
		h.handle(mux, "/v1/pvp/invitations/accept", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			inv, err := formID(r, "invitation_id")
			if err != nil {
				return nil, err
			}
			return p.AcceptInvitation(r.Context(), id, inv)
		})
		h.handle(mux, "/v1/pvp/invitations/decline", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			inv, err := formID(r, "invitation_id")
			if err != nil {
				return nil, err
			}
			return p.DeclineInvitation(r.Context(), id, inv)
		})
	}

	if c := h.svc.Colonies; c != nil {
		h.handle(mux, "/v1/colonies/attack", http.MethodPost, func(r *http.Request, id int64) (any, error) {
			col, err := formID(r, "colony_id")
			if err != nil {
				return nil, err
			}
			allies := make([]int64, 0, len(r.Form["ally_id"]))
			for _, raw := range r.Form["ally_id"] {
				ally, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
				if err != nil || ally <= 0 {
					return nil, apperr.New(apperr.KindInvalidRequest, "ally_id must be a positive integer")
				}
				allies = append(allies, ally)
			}
			return c.Attack(r.Context(), colony.AttackRequest{AttackerID: id, ColonyID: col, AllyIDs: allies})
		})
	}

	if s := h.svc.Sessions; s != nil {
		h.handle(mux, "/v1/combat/session", http.MethodGet, func(r *http.Request, id int64) (any, error) {
			uuid, err := formString(r, "uuid")
			if err != nil {
				return nil, err
			}
			return s.Get(r.Context(), id, uuid)
		})
	}

	if s := h.svc.Repairs; s != nil {
		h.routes(mux, "/v1/ships/repair", map[string]action{
			http.MethodGet: func(r *http.Request, id int64) (any, error) {
				return s.Quote(r.Context(), id)
			},
			http.MethodPost: func(r *http.Request, id int64) (any, error) {
				return s.Repair(r.Context(), id, r.FormValue("target"))
			},
		})
	}
}

func (h *HandlerI) handle(mux *http.ServeMux, path, method string, fn action) {
	h.routes(mux, path, map[string]action{method: fn})
}

func (h *HandlerI) routes(mux *http.ServeMux, path string, byMethod map[string]action) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn, ok := byMethod[r.Method]
		if !ok {
			writeJSON(w, http.StatusMethodNotAllowed, Response{Status: "error", Message: "method not allowed"})
			return
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, apperr.New(apperr.KindInvalidRequest, "invalid form"))
			return
		}
		playerID, _ := PlayerID(r.Context())
		data, err := fn(r, playerID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				h.logger.Errorf("%s %s for player %d failed: %v", r.Method, r.URL.Path, playerID, err)
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Status: "ok", Data: data})
	})
	mux.Handle(path, h.auth.Wrap(h.limiter.Wrap(inner)))
}

func formString(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return "", apperr.New(apperr.KindInvalidRequest, name+" is required")
	}
	return v, nil
}

func formID(r *http.Request, name string) (int64, error) {
	v, err := formString(r, name)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.KindInvalidRequest, name+" must be a positive integer")
	}
	return id, nil
}

func optionalInt(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.KindInvalidRequest, name+" must be an integer")
	}
	return n, nil
}

// parseSelection reads repeated mineral=<id>:<qty> and plan=<id> values.
// With neither present, or with all=true, everything is selected.
func parseSelection(r *http.Request) (salvage.Selection, error) {
	sel := salvage.Selection{}
	if all, _ := strconv.ParseBool(r.FormValue("all")); all {
		sel.All = true
		return sel, nil
	}
	for _, raw := range r.Form["mineral"] {
		idPart, qtyPart, ok := strings.Cut(strings.TrimSpace(raw), ":")
		id, err1 := strconv.ParseInt(idPart, 10, 64)
		qty, err2 := strconv.Atoi(qtyPart)
		if !ok || err1 != nil || err2 != nil || id <= 0 || qty <= 0 {
			return salvage.Selection{}, apperr.New(apperr.KindInvalidRequest,
				fmt.Sprintf("mineral %q must look like <mineral_id>:<quantity>", raw))
		}
		if sel.Minerals == nil {
			sel.Minerals = map[int64]int{}
		}
		sel.Minerals[id] += qty
	}
	for _, raw := range r.Form["plan"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			return salvage.Selection{}, apperr.New(apperr.KindInvalidRequest, "plan must be a positive integer")
		}
		sel.Plans = append(sel.Plans, id)
	}
	if len(sel.Minerals) == 0 && len(sel.Plans) == 0 {
		sel.All = true
	}
	return sel, nil
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	writeJSON(w, kind.HTTPStatus(), Response{
		Status:  "error",
		Kind:    string(kind),
		Message: apperr.Message(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package pvp

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spacewars/internal/apperr"
	"spacewars/internal/combat"
	"spacewars/internal/death"
	ilog "spacewars/internal/log"
	"spacewars/internal/pgsql"
	"spacewars/internal/reward"
	"spacewars/internal/session"
)

type Service struct {
	store    pgsql.Store
	resolver *combat.Resolver
	deaths   *death.Service
	ttl      time.Duration
	now      func() time.Time
	seed     func() int64
	logger   *zap.SugaredLogger
}

func NewService(store pgsql.Store, resolver *combat.Resolver, deaths *death.Service, opts Options) *Service {
	if opts.ChallengeTTL <= 0 {
		opts.ChallengeTTL = DefaultChallengeTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == nil {
		opts.Seed = func() int64 { return time.Now().UnixNano() }
	}
	return &Service{
		store:    store,
		resolver: resolver,
		deaths:   deaths,
		ttl:      opts.ChallengeTTL,
		now:      opts.Now,
		seed:     opts.Seed,
		logger:   ilog.Component("pvp"),
	}
}

// Issue creates a pending challenge. Both pilots must share a location and
// fly an active ship, and both must be able to cover the wager.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (pgsql.PvPChallenge, error) {
	if req.ChallengerID == req.TargetID {
		return pgsql.PvPChallenge{}, apperr.New(apperr.KindSelfChallengeForbidden, "you cannot challenge yourself")
	}
	if req.Wager < 0 || req.Wager > MaxWager {
		return pgsql.PvPChallenge{}, apperr.New(apperr.KindInvalidWager,
			fmt.Sprintf("wager must be between 0 and %d credits", MaxWager))
	}
	if req.MaxTeamSize == 0 {
		req.MaxTeamSize = 1
	}
	if req.MaxTeamSize < 1 || req.MaxTeamSize > MaxTeamSize {
		return pgsql.PvPChallenge{}, apperr.New(apperr.KindInvalidTeamSize,
			fmt.Sprintf("team size must be between 1 and %d", MaxTeamSize))
	}

	now := s.now().UTC()
	var out pgsql.PvPChallenge
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		challenger, err := readPlayer(ctx, repos, req.ChallengerID)
		if err != nil {
			return err
		}
		target, err := readPlayer(ctx, repos, req.TargetID)
		if err != nil {
			return err
		}
		if challenger.LocationID != target.LocationID {
			return apperr.New(apperr.KindNotCoLocated, "you must be at the same location as your target")
		}
		if _, err := activeShip(ctx, repos, challenger.ID, "you need an active ship to issue a challenge"); err != nil {
			return err
		}
		if _, err := activeShip(ctx, repos, target.ID, "target player does not have an active ship"); err != nil {
			return err
		}

		pending, err := repos.Challenge.ListPendingForPlayer(ctx, challenger.ID)
		if err != nil {
			return fmt.Errorf("list pending challenges: %w", err)
		}
		for _, p := range pending {
			if p.ChallengerID == challenger.ID && p.TargetID == target.ID && !expired(p, now) {
				return apperr.New(apperr.KindChallengeAlreadyPending, "you already have a pending challenge with this player")
			}
		}

		if req.Wager > 0 {
			if challenger.Credits < req.Wager {
				return apperr.New(apperr.KindInsufficientCredits, "insufficient credits for wager")
			}
			if target.Credits < req.Wager {
				return apperr.New(apperr.KindTargetCannotMatchWager, "target player cannot match the wager")
			}
		}

		out = pgsql.PvPChallenge{
			UUID:         uuid.NewString(),
			ChallengerID: challenger.ID,
			TargetID:     target.ID,
			Status:       pgsql.ChallengePending,
			Message:      sql.NullString{String: req.Message, Valid: strings.TrimSpace(req.Message) != ""},
			WagerCredits: req.Wager,
			MaxTeamSize:  req.MaxTeamSize,
			LocationID:   challenger.LocationID,
			ChallengedAt: now,
			ExpiresAt:    now.Add(s.ttl),
		}
		out.ID, err = repos.Challenge.Create(ctx, out)
		if err != nil {
			return fmt.Errorf("create challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return pgsql.PvPChallenge{}, err
	}
	s.logger.Infof("player %d challenged player %d (wager %d, team size %d)",
		out.ChallengerID, out.TargetID, out.WagerCredits, out.MaxTeamSize)
	return out, nil
}

// Accept resolves the fight. Only the target may accept, and an expired
// challenge is marked expired and refused. Wager deduction, the fight
// result, payouts and deaths are committed together.
func (s *Service) Accept(ctx context.Context, playerID int64, challengeUUID string) (Result, error) {
	ch, err := s.current(ctx, challengeUUID)
	if err != nil {
		return Result{}, err
	}
	if ch.TargetID != playerID {
		return Result{}, apperr.New(apperr.KindNotChallengeTarget, "you are not the target of this challenge")
	}
	if err := requirePending(ch); err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	var res Result
	err = s.store.InTx(ctx, func(repos pgsql.Repos) error {
		attackers, defenders, err := s.roster(ctx, repos, ch)
		if err != nil {
			return err
		}
		ok, err := repos.Challenge.TransitionStatus(ctx, ch.ID, pgsql.ChallengePending, pgsql.ChallengeAccepted, now)
		if err != nil {
			return fmt.Errorf("accept challenge: %w", err)
		}
		if !ok {
			return apperr.New(apperr.KindChallengeNotPending, "this challenge is no longer available")
		}

		everyone := append(append([]member{}, attackers...), defenders...)
		if ch.WagerCredits > 0 {
			for _, m := range everyone {
				m.player.Credits -= ch.WagerCredits
				if err := repos.Player.Update(ctx, m.player); err != nil {
					return fmt.Errorf("deduct wager from player %d: %w", m.player.ID, err)
				}
			}
		}

		team := len(attackers) > 1 || len(defenders) > 1
		title := "⚔️  PVP COMBAT INITIATED  ⚔️"
		if team {
			title = "⚔️  TEAM COMBAT INITIATED  ⚔️"
		}
		outcome := s.resolver.WithSeed(s.seed()).Resolve(combat.Engagement{
			Title:       title,
			Attackers:   combatants(attackers),
			Defenders:   combatants(defenders),
			VictoryText: victoryText(attackers, team),
			DefeatText:  victoryText(defenders, team),
		})

		res, err = s.settle(ctx, repos, ch, outcome, everyone, team, now)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Infof("challenge %s resolved: %s won in %d rounds, %d deaths",
		ch.UUID, res.Outcome.Victor, res.Outcome.Rounds, len(res.Deaths))
	return res, nil
}

func (s *Service) settle(ctx context.Context, repos pgsql.Repos, ch pgsql.PvPChallenge,
	outcome combat.Outcome, everyone []member, team bool, now time.Time) (Result, error) {
	byShip := make(map[int64]member, len(everyone))
	for _, m := range everyone {
		byShip[m.ship.ID] = m
	}

	survivors := outcome.Survivors(outcome.Victor)
	survivorIDs := make([]int64, 0, len(survivors))
	for _, f := range survivors {
		survivorIDs = append(survivorIDs, f.OwnerID)
	}
	xp := int64(reward.PvPVictorXP)
	if team {
		xp = reward.SplitXP(reward.TeamVictoryXP, len(survivors))
	}
	pot := reward.WagerPot(ch.WagerCredits, len(everyone))
	payouts := reward.SplitPot(pot, survivorIDs)

	res := Result{
		ChallengeUUID: ch.UUID,
		Team:          team,
		XPPerVictor:   xp,
		Pot:           pot,
		Payouts:       payouts,
		Deaths:        []death.Result{},
		DeathMessages: []string{},
	}
	earned := map[int64]reward.Payout{}
	for _, p := range payouts {
		player, err := repos.Player.Read(ctx, p.PlayerID)
		if err != nil {
			return Result{}, fmt.Errorf("read victor %d: %w", p.PlayerID, err)
		}
		player.Credits += p.Credits
		player.Experience += xp
		if err := repos.Player.Update(ctx, player); err != nil {
			return Result{}, fmt.Errorf("pay victor %d: %w", p.PlayerID, err)
		}
		earned[p.PlayerID] = p
		line := fmt.Sprintf("⭐ %s earned: %d XP", player.Name, xp)
		if p.Credits > 0 {
			line += fmt.Sprintf(" and %d credits", p.Credits)
		}
		outcome.Log = combat.Append(outcome.Log, combat.EntryReward, line)
	}

	fighters := append(append([]combat.Fighter{}, outcome.Attackers...), outcome.Defenders...)
	participants := make([]session.Participant, 0, len(fighters))
	for _, f := range fighters {
		m := byShip[f.Ref]
		part := session.Participant{PlayerID: m.player.ID, ShipID: m.ship.ID, Fighter: f}
		if p, ok := earned[m.player.ID]; ok {
			part.XP, part.Credits = xp, p.Credits
		}
		participants = append(participants, part)

		if f.Hull > 0 {
			ship, err := repos.PlayerShip.Read(ctx, m.ship.ID)
			if err != nil {
				return Result{}, fmt.Errorf("read ship %d: %w", m.ship.ID, err)
			}
			ship.Hull = f.Hull
			if err := repos.PlayerShip.Update(ctx, ship); err != nil {
				return Result{}, fmt.Errorf("update hull of ship %d: %w", ship.ID, err)
			}
			continue
		}
		dr, err := s.deaths.ProcessPlayerDeath(ctx, repos, m.player.ID, m.ship.ID)
		if err != nil {
			return Result{}, err
		}
		res.Deaths = append(res.Deaths, dr)
		res.DeathMessages = append(res.DeathMessages, death.GenerateDeathMessage(dr))
		outcome.Log = combat.Append(outcome.Log, combat.EntryDeath, deathLine(m.player.Name, dr))
	}

	var victorID int64
	if len(survivorIDs) > 0 {
		victorID = survivorIDs[0]
	}
	saved, err := session.Save(ctx, repos, session.Record{
		CombatType:     pgsql.CombatPvP,
		LocationID:     ch.LocationID,
		ChallengeID:    ch.ID,
		Outcome:        outcome,
		VictorPlayerID: victorID,
		Participants:   participants,
		Rewards: map[string]any{
			"xp_per_victor": xp,
			"pot":           pot,
			"payouts":       payouts,
		},
		StartedAt: now,
		EndedAt:   s.now().UTC(),
	})
	if err != nil {
		return Result{}, err
	}
	if err := repos.Challenge.AttachSession(ctx, ch.ID, saved.ID); err != nil {
		return Result{}, fmt.Errorf("attach session to challenge: %w", err)
	}
	res.SessionUUID = saved.UUID
	res.Outcome = outcome
	return res, nil
}

// Decline is the target refusing a pending challenge.
func (s *Service) Decline(ctx context.Context, playerID int64, challengeUUID string) (pgsql.PvPChallenge, error) {
	return s.close(ctx, playerID, challengeUUID, pgsql.ChallengeDeclined)
}

// Cancel is the challenger withdrawing a pending challenge.
func (s *Service) Cancel(ctx context.Context, playerID int64, challengeUUID string) (pgsql.PvPChallenge, error) {
	return s.close(ctx, playerID, challengeUUID, pgsql.ChallengeCancelled)
}

func (s *Service) close(ctx context.Context, playerID int64, challengeUUID, to string) (pgsql.PvPChallenge, error) {
	ch, err := s.current(ctx, challengeUUID)
	if err != nil {
		return pgsql.PvPChallenge{}, err
	}
	switch to {
	case pgsql.ChallengeDeclined:
		if ch.TargetID != playerID {
			return pgsql.PvPChallenge{}, apperr.New(apperr.KindNotChallengeTarget, "you are not the target of this challenge")
		}
	case pgsql.ChallengeCancelled:
		if ch.ChallengerID != playerID {
			return pgsql.PvPChallenge{}, apperr.New(apperr.KindChallengeNotYours, "only the challenger can cancel this challenge")
		}
	}
	if err := requirePending(ch); err != nil {
		return pgsql.PvPChallenge{}, err
	}

	now := s.now().UTC()
	err = s.store.InTx(ctx, func(repos pgsql.Repos) error {
		ok, err := repos.Challenge.TransitionStatus(ctx, ch.ID, pgsql.ChallengePending, to, now)
		if err != nil {
			return fmt.Errorf("%s challenge: %w", to, err)
		}
		if !ok {
			return apperr.New(apperr.KindChallengeNotPending, "this challenge is no longer available")
		}
		return nil
	})
	if err != nil {
		return pgsql.PvPChallenge{}, err
	}
	ch.Status = to
	ch.RespondedAt = sql.NullTime{Time: now, Valid: true}
	s.logger.Infof("challenge %s %s by player %d", ch.UUID, to, playerID)
	return ch, nil
}

// Invite asks another pilot to join one side of a pending challenge. The
// challenger recruits attackers and the target recruits defenders.
func (s *Service) Invite(ctx context.Context, req InviteRequest) (pgsql.PvPTeamInvitation, error) {
	ch, err := s.current(ctx, req.ChallengeUUID)
	if err != nil {
		return pgsql.PvPTeamInvitation{}, err
	}
	if err := requirePending(ch); err != nil {
		return pgsql.PvPTeamInvitation{}, err
	}
	switch req.InviterID {
	case ch.ChallengerID:
		if req.Side != string(combat.SideAttacker) {
			return pgsql.PvPTeamInvitation{}, apperr.New(apperr.KindInvalidSideForInviter, "challenger can only invite attackers")
		}
	case ch.TargetID:
		if req.Side != string(combat.SideDefender) {
			return pgsql.PvPTeamInvitation{}, apperr.New(apperr.KindInvalidSideForInviter, "target can only invite defenders")
		}
	default:
		return pgsql.PvPTeamInvitation{}, apperr.New(apperr.KindNotInChallenge, "you are not part of this challenge")
	}
	if req.InviteeID == ch.ChallengerID || req.InviteeID == ch.TargetID {
		return pgsql.PvPTeamInvitation{}, apperr.New(apperr.KindDuplicateInvitation, "player is already part of this challenge")
	}

	now := s.now().UTC()
	var out pgsql.PvPTeamInvitation
	err = s.store.InTx(ctx, func(repos pgsql.Repos) error {
		invitations, err := repos.Invitation.ListByChallenge(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("list invitations: %w", err)
		}
		for _, inv := range invitations {
			if inv.InvitedPlayerID == req.InviteeID {
				return apperr.New(apperr.KindDuplicateInvitation, "player has already been invited")
			}
		}
		if teamSize(invitations, req.Side) >= ch.MaxTeamSize {
			return apperr.New(apperr.KindTeamFull, "team is full")
		}
		invitee, err := readPlayer(ctx, repos, req.InviteeID)
		if err != nil {
			return err
		}
		if invitee.LocationID != ch.LocationID {
			return apperr.New(apperr.KindNotCoLocated, "invited player must be at the challenge location")
		}
		if _, err := activeShip(ctx, repos, invitee.ID, "invited player does not have an active ship"); err != nil {
			return err
		}
		out = pgsql.PvPTeamInvitation{
			PvPChallengeID:    ch.ID,
			InvitedPlayerID:   invitee.ID,
			InvitedByPlayerID: req.InviterID,
			Side:              req.Side,
			Status:            pgsql.InvitationPending,
			CreatedAt:         now,
		}
		out.ID, err = repos.Invitation.Create(ctx, out)
		if err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return pgsql.PvPTeamInvitation{}, err
	}
	s.logger.Infof("player %d invited player %d to the %s side of %s",
		req.InviterID, req.InviteeID, req.Side, ch.UUID)
	return out, nil
}

// AcceptInvitation joins the invited side unless it has filled up since.
func (s *Service) AcceptInvitation(ctx context.Context, playerID, invitationID int64) (pgsql.PvPTeamInvitation, error) {
	inv, ch, err := s.invitation(ctx, playerID, invitationID)
	if err != nil {
		return pgsql.PvPTeamInvitation{}, err
	}
	if err := requirePending(ch); err != nil {
		return pgsql.PvPTeamInvitation{}, err
	}

	now := s.now().UTC()
	err = s.store.InTx(ctx, func(repos pgsql.Repos) error {
		player, err := readPlayer(ctx, repos, playerID)
		if err != nil {
			return err
		}
		if player.LocationID != ch.LocationID {
			return apperr.New(apperr.KindNotCoLocated, "you are no longer at the challenge location")
		}
		if _, err := activeShip(ctx, repos, playerID, "you need an active ship to join this challenge"); err != nil {
			return err
		}
		invitations, err := repos.Invitation.ListByChallenge(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("list invitations: %w", err)
		}
		if teamSize(invitations, inv.Side) >= ch.MaxTeamSize {
			return apperr.New(apperr.KindTeamFull, "team is full")
		}
		ok, err := repos.Invitation.TransitionStatus(ctx, inv.ID, pgsql.InvitationPending, pgsql.InvitationAccepted, now)
		if err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}
		if !ok {
			return apperr.New(apperr.KindInvitationNotPending, "this invitation is no longer available")
		}
		return nil
	})
	if err != nil {
		return pgsql.PvPTeamInvitation{}, err
	}
	inv.Status = pgsql.InvitationAccepted
	inv.RespondedAt = sql.NullTime{Time: now, Valid: true}
	s.logger.Infof("player %d joined the %s side of %s", playerID, inv.Side, ch.UUID)
	return inv, nil
}

func (s *Service) DeclineInvitation(ctx context.Context, playerID, invitationID int64) (pgsql.PvPTeamInvitation, error) {
	inv, _, err := s.invitation(ctx, playerID, invitationID)
	if err != nil {
		return pgsql.PvPTeamInvitation{}, err
	}
	now := s.now().UTC()
	err = s.store.InTx(ctx, func(repos pgsql.Repos) error {
		ok, err := repos.Invitation.TransitionStatus(ctx, inv.ID, pgsql.InvitationPending, pgsql.InvitationDeclined, now)
		if err != nil {
			return fmt.Errorf("decline invitation: %w", err)
		}
		if !ok {
			return apperr.New(apperr.KindInvitationNotPending, "this invitation is no longer available")
		}
		return nil
	})
	if err != nil {
		return pgsql.PvPTeamInvitation{}, err
	}
	inv.Status = pgsql.InvitationDeclined
	inv.RespondedAt = sql.NullTime{Time: now, Valid: true}
	return inv, nil
}

// Get returns a challenge to one of its pilots or invitees.
func (s *Service) Get(ctx context.Context, playerID int64, challengeUUID string) (Challenge, error) {
	ch, err := s.current(ctx, challengeUUID)
	if err != nil {
		return Challenge{}, err
	}
	var out Challenge
	err = s.store.InTx(ctx, func(repos pgsql.Repos) error {
		invitations, err := repos.Invitation.ListByChallenge(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("list invitations: %w", err)
		}
		visible := ch.ChallengerID == playerID || ch.TargetID == playerID
		for _, inv := range invitations {
			visible = visible || inv.InvitedPlayerID == playerID
		}
		if !visible {
			return apperr.New(apperr.KindNotInChallenge, "you are not part of this challenge")
		}
		out = Challenge{PvPChallenge: ch, Invitations: invitations}
		return nil
	})
	return out, err
}

// ListPending returns live challenges the player issued or received.
// Challenges found past their expiry are marked expired and left out.
func (s *Service) ListPending(ctx context.Context, playerID int64) ([]Challenge, error) {
	now := s.now().UTC()
	out := make([]Challenge, 0)
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		pending, err := repos.Challenge.ListPendingForPlayer(ctx, playerID)
		if err != nil {
			return fmt.Errorf("list pending challenges: %w", err)
		}
		for _, ch := range pending {
			if expired(ch, now) {
				if _, err := repos.Challenge.TransitionStatus(ctx, ch.ID, pgsql.ChallengePending, pgsql.ChallengeExpired, now); err != nil {
					return fmt.Errorf("expire challenge %d: %w", ch.ID, err)
				}
				continue
			}
			invitations, err := repos.Invitation.ListByChallenge(ctx, ch.ID)
			if err != nil {
				return fmt.Errorf("list invitations: %w", err)
			}
			out = append(out, Challenge{PvPChallenge: ch, Invitations: invitations})
		}
		return nil
	})
	return out, err
}

// current loads a challenge and expires it when it is read past its
// deadline. The expiry is committed on its own so callers that go on to
// reject the request still leave it recorded.
func (s *Service) current(ctx context.Context, challengeUUID string) (pgsql.PvPChallenge, error) {
	now := s.now().UTC()
	var ch pgsql.PvPChallenge
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		var err error
		ch, err = repos.Challenge.ReadByUUID(ctx, challengeUUID)
		if err != nil {
			if pgsql.IsNotFound(err) {
				return apperr.New(apperr.KindNotFound, "challenge not found")
			}
			return fmt.Errorf("read challenge %s: %w", challengeUUID, err)
		}
		return s.expireIfDue(ctx, repos, &ch, now)
	})
	return ch, err
}

func (s *Service) expireIfDue(ctx context.Context, repos pgsql.Repos, ch *pgsql.PvPChallenge, now time.Time) error {
	if ch.Status != pgsql.ChallengePending || !expired(*ch, now) {
		return nil
	}
	ok, err := repos.Challenge.TransitionStatus(ctx, ch.ID, pgsql.ChallengePending, pgsql.ChallengeExpired, now)
	if err != nil {
		return fmt.Errorf("expire challenge %d: %w", ch.ID, err)
	}
	if ok {
		ch.Status = pgsql.ChallengeExpired
		ch.RespondedAt = sql.NullTime{Time: now, Valid: true}
		s.logger.Infof("challenge %s expired", ch.UUID)
	}
	return nil
}

// invitation loads an invitation addressed to playerID with its challenge.
func (s *Service) invitation(ctx context.Context, playerID, invitationID int64) (pgsql.PvPTeamInvitation, pgsql.PvPChallenge, error) {
	now := s.now().UTC()
	var inv pgsql.PvPTeamInvitation
	var ch pgsql.PvPChallenge
	err := s.store.InTx(ctx, func(repos pgsql.Repos) error {
		var err error
		inv, err = repos.Invitation.Read(ctx, invitationID)
		if err != nil {
			if pgsql.IsNotFound(err) {
				return apperr.New(apperr.KindNotFound, "invitation not found")
			}
			return fmt.Errorf("read invitation %d: %w", invitationID, err)
		}
		if inv.InvitedPlayerID != playerID {
			return apperr.New(apperr.KindForbidden, "this invitation is not for you")
		}
		if inv.Status != pgsql.InvitationPending {
			return apperr.New(apperr.KindInvitationNotPending, "this invitation is no longer available")
		}
		if ch, err = repos.Challenge.Read(ctx, inv.PvPChallengeID); err != nil {
			return fmt.Errorf("read challenge %d: %w", inv.PvPChallengeID, err)
		}
		return s.expireIfDue(ctx, repos, &ch, now)
	})
	return inv, ch, err
}

type member struct {
	player pgsql.Player
	ship   pgsql.PlayerShip
}

// roster gathers both sides: the principal first, then accepted allies in
// the order they were invited. Every pilot must still be at the challenge
// location with an active ship and be able to cover the wager.
func (s *Service) roster(ctx context.Context, repos pgsql.Repos, ch pgsql.PvPChallenge) ([]member, []member, error) {
	invitations, err := repos.Invitation.ListByChallenge(ctx, ch.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list invitations: %w", err)
	}
	attackerIDs := []int64{ch.ChallengerID}
	defenderIDs := []int64{ch.TargetID}
	for _, inv := range invitations {
		if inv.Status != pgsql.InvitationAccepted {
			continue
		}
		if inv.Side == string(combat.SideAttacker) {
			attackerIDs = append(attackerIDs, inv.InvitedPlayerID)
		} else {
			defenderIDs = append(defenderIDs, inv.InvitedPlayerID)
		}
	}

	load := func(ids []int64) ([]member, error) {
		out := make([]member, 0, len(ids))
		for _, id := range ids {
			player, err := readPlayer(ctx, repos, id)
			if err != nil {
				return nil, err
			}
			if player.LocationID != ch.LocationID {
				return nil, apperr.WithMetadata(apperr.KindNotCoLocated,
					fmt.Sprintf("%s is no longer at the challenge location", player.Name),
					map[string]string{"player_id": fmt.Sprint(id)})
			}
			ship, err := activeShip(ctx, repos, id, fmt.Sprintf("%s no longer has an active ship", player.Name))
			if err != nil {
				return nil, err
			}
			if player.Credits < ch.WagerCredits {
				kind := apperr.KindInsufficientCredits
				if id == ch.TargetID {
					kind = apperr.KindTargetCannotMatchWager
				}
				return nil, apperr.WithMetadata(kind,
					fmt.Sprintf("%s cannot afford the wager", player.Name),
					map[string]string{"player_id": fmt.Sprint(id)})
			}
			out = append(out, member{player: player, ship: ship})
		}
		return out, nil
	}
	attackers, err := load(attackerIDs)
	if err != nil {
		return nil, nil, err
	}
	defenders, err := load(defenderIDs)
	if err != nil {
		return nil, nil, err
	}
	return attackers, defenders, nil
}

func combatants(ms []member) []combat.Combatant {
	out := make([]combat.Combatant, 0, len(ms))
	for _, m := range ms {
		out = append(out, combat.Combatant{
			Kind:      combat.KindPlayerShip,
			Ref:       m.ship.ID,
			Name:      m.ship.Name,
			OwnerID:   m.player.ID,
			OwnerName: m.player.Name,
			Hull:      m.ship.Hull,
			MaxHull:   m.ship.MaxHull,
			Weapons:   m.ship.Weapons,
			Speed:     m.ship.Speed,
			WarpDrive: m.ship.WarpDrive,
		})
	}
	return out
}

func victoryText(side []member, team bool) string {
	if team || len(side) == 0 {
		return ""
	}
	return fmt.Sprintf("🏆 %s is VICTORIOUS!", side[0].player.Name)
}

func deathLine(name string, dr death.Result) string {
	if dr.Respawn != nil {
		return fmt.Sprintf("☠️  %s's ship was destroyed and they were sent to %s", name, dr.Respawn.Name)
	}
	return fmt.Sprintf("☠️  %s's ship was destroyed and their escape pod drifts in place", name)
}

func teamSize(invitations []pgsql.PvPTeamInvitation, side string) int {
	n := 1
	for _, inv := range invitations {
		if inv.Side == side && inv.Status == pgsql.InvitationAccepted {
			n++
		}
	}
	return n
}

func expired(ch pgsql.PvPChallenge, now time.Time) bool {
	return !ch.ExpiresAt.IsZero() && now.After(ch.ExpiresAt)
}

func requirePending(ch pgsql.PvPChallenge) error {
	switch ch.Status {
	case pgsql.ChallengePending:
		return nil
	case pgsql.ChallengeExpired:
		return apperr.New(apperr.KindChallengeExpired, "this challenge has expired")
	default:
		return apperr.New(apperr.KindChallengeNotPending, "this challenge is no longer available")
	}
}

func readPlayer(ctx context.Context, repos pgsql.Repos, id int64) (pgsql.Player, error) {
	p, err := repos.Player.Read(ctx, id)
	if err != nil {
		if pgsql.IsNotFound(err) {
			return pgsql.Player{}, apperr.WithMetadata(apperr.KindNotFound, "player not found",
				map[string]string{"player_id": fmt.Sprint(id)})
		}
		return pgsql.Player{}, fmt.Errorf("read player %d: %w", id, err)
	}
	return p, nil
}

func activeShip(ctx context.Context, repos pgsql.Repos, playerID int64, message string) (pgsql.PlayerShip, error) {
	ship, err := repos.PlayerShip.ReadActive(ctx, playerID)
	if err != nil {
		if pgsql.IsNotFound(err) {
			return pgsql.PlayerShip{}, apperr.New(apperr.KindNoActiveShip, message)
		}
		return pgsql.PlayerShip{}, fmt.Errorf("read active ship of player %d: %w", playerID, err)
	}
	return ship, nil
}

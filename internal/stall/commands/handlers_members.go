package commands

import (
	"context"
	"errors"

	"stallworks/internal/events"
	"stallworks/internal/stall"
	dErrors "stallworks/pkg/domain-errors"
	"stallworks/pkg/platform/sentinel"
)

// AddMemberHandler grants a persona delegated rights on a stall.
type AddMemberHandler struct{ deps *Deps }

func NewAddMemberHandler(deps *Deps) *AddMemberHandler { return &AddMemberHandler{deps: deps} }

func (h *AddMemberHandler) Handle(ctx context.Context, cmd AddMember) Result {
	var added stall.Member
	_, err := h.deps.Stalls.Update(ctx, cmd.StallID, func(s *stall.Stall) error {
		member, err := s.TryAddMember(cmd.Requestor, stall.MemberDescriptor{
			Persona:              cmd.Member,
			DisplayName:          cmd.DisplayName,
			CanManageInventory:   cmd.CanManageInventory,
			CanConfigureSettings: cmd.CanConfigureSettings,
			CanCollectEarnings:   cmd.CanCollectEarnings,
		})
		if err != nil {
			return err
		}
		s.Members = append(s.Members, member)
		added = member
		return nil
	})
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}

	h.deps.Bus.Publish(ctx, events.StallMemberAdded{
		StallID: cmd.StallID,
		Member:  added.Persona,
		AddedBy: cmd.Requestor,
		AddedAt: added.AddedAt,
	})
	return Succeed()
}

// RemoveMemberHandler revokes a membership. The owner can never be removed.
type RemoveMemberHandler struct{ deps *Deps }

func NewRemoveMemberHandler(deps *Deps) *RemoveMemberHandler { return &RemoveMemberHandler{deps: deps} }

func (h *RemoveMemberHandler) Handle(ctx context.Context, cmd RemoveMember) Result {
	now := h.deps.now()
	_, err := h.deps.Stalls.Update(ctx, cmd.StallID, func(s *stall.Stall) error {
		if _, err := s.TryRemoveMember(cmd.Requestor, cmd.Member); err != nil {
			return err
		}
		for i := range s.Members {
			if s.Members[i].Persona == cmd.Member && !s.Members[i].Revoked() {
				revokedAt := now
				s.Members[i].RevokedAt = &revokedAt
			}
		}
		return nil
	})
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}

	h.deps.Bus.Publish(ctx, events.StallMemberRemoved{
		StallID:   cmd.StallID,
		Member:    cmd.Member,
		RemovedBy: cmd.Requestor,
		RemovedAt: now,
	})
	return Succeed()
}

// translateStore maps store sentinels onto caller-safe domain errors.
func translateStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "stall not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "the stall changed underneath you, try again")
	default:
		return err
	}
}

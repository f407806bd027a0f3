package handler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutriweek/nutriweek/internal/featureflags"
	"github.com/nutriweek/nutriweek/internal/plan"
)

func flagsServiceWith(t *testing.T, key string, value bool) *featureflags.Service {
	t.Helper()
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
		key: {Key: key, Value: value, UpdatedAt: time.Now()},
	})
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   1 * time.Minute,
	})
}

func TestApplyPromptGates_CheatDayStrippedWhenFlagOff(t *testing.T) {
	h := NewFlowHandler(nil, nil, flagsServiceWith(t, featureflags.FlagCheatDayPrompts, false))

	profile := plan.UserProfile{CheatDay: "saturday"}
	gated := h.applyPromptGates(context.Background(), profile)

	if gated.CheatDay != "" {
		t.Errorf("expected cheat day to be dropped, got %q", gated.CheatDay)
	}
}

func TestApplyPromptGates_CheatDayKeptWhenFlagOn(t *testing.T) {
	h := NewFlowHandler(nil, nil, flagsServiceWith(t, featureflags.FlagCheatDayPrompts, true))

	profile := plan.UserProfile{CheatDay: "saturday"}
	gated := h.applyPromptGates(context.Background(), profile)

	if gated.CheatDay != "saturday" {
		t.Errorf("expected cheat day to survive, got %q", gated.CheatDay)
	}
}

func TestApplyPromptGates_NilFlagsKeepsProfile(t *testing.T) {
	h := NewFlowHandler(nil, nil, nil)

	profile := plan.UserProfile{CheatDay: "sunday"}
	gated := h.applyPromptGates(context.Background(), profile)

	if gated.CheatDay != "sunday" {
		t.Errorf("expected cheat day to survive without a flag service, got %q", gated.CheatDay)
	}
}

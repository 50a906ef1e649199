package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/DmitriiButk/market-bot/config"
)

type fakeMemberAPI struct {
	statuses map[string]string
	errs     map[string]error
}

func (f *fakeMemberAPI) ChatMemberStatus(_ context.Context, chatID string, _ int64) (string, error) {
	if err, ok := f.errs[chatID]; ok {
		return "", err
	}
	return f.statuses[chatID], nil
}

func TestChecker_IsSubscribed(t *testing.T) {
	api := &fakeMemberAPI{statuses: map[string]string{
		"@owner":  "creator",
		"@admin":  "administrator",
		"@member": "member",
		"@left":   "left",
		"@kicked": "kicked",
	}}
	c := NewChecker(api, zap.NewNop())
	ctx := context.Background()

	assert.True(t, c.IsSubscribed(ctx, 1, "@owner"))
	assert.True(t, c.IsSubscribed(ctx, 1, "@admin"))
	assert.True(t, c.IsSubscribed(ctx, 1, "@member"))
	assert.False(t, c.IsSubscribed(ctx, 1, "@left"))
	assert.False(t, c.IsSubscribed(ctx, 1, "@kicked"))
}

func TestChecker_HiddenMemberListCountsAsSubscribed(t *testing.T) {
	api := &fakeMemberAPI{errs: map[string]error{
		"@hidden": errors.New("Bad Request: member list is inaccessible"),
	}}
	c := NewChecker(api, zap.NewNop())

	assert.True(t, c.IsSubscribed(context.Background(), 1, "@hidden"))
}

func TestChecker_APIErrorCountsAsNotSubscribed(t *testing.T) {
	api := &fakeMemberAPI{errs: map[string]error{
		"@broken": errors.New("Bad Request: chat not found"),
	}}
	c := NewChecker(api, zap.NewNop())

	assert.False(t, c.IsSubscribed(context.Background(), 1, "@broken"))
}

func TestChecker_MissingChannels(t *testing.T) {
	api := &fakeMemberAPI{statuses: map[string]string{
		"@news": "member",
		"@shop": "left",
	}}
	c := NewChecker(api, zap.NewNop())

	channels := []config.Channel{
		{ChatID: "@news", Name: "Новости"},
		{ChatID: "@shop", Name: "Магазин"},
	}

	missing := c.MissingChannels(context.Background(), 1, channels)
	assert.Len(t, missing, 1)
	assert.Equal(t, "@shop", missing[0].ChatID)
}

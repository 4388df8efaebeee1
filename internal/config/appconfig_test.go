// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jeranaias/orchat/internal/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_ModelsWithoutSource(t *testing.T) {
	app := NewAppConfig(nil, nil)
	_, err := app.Models(context.Background())
	assert.ErrorIs(t, err, ErrNoModelSource)
}

func TestAppConfig_ModelsFromSource(t *testing.T) {
	want := []cloud.Model{{ID: "a"}, {ID: "b"}}
	app := NewAppConfig(nil, ModelSourceFunc(func(ctx context.Context) ([]cloud.Model, error) {
		return want, nil
	}))

	got, err := app.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAppConfig_ModelsSourceError(t *testing.T) {
	boom := errors.New("boom")
	app := NewAppConfig(nil, ModelSourceFunc(func(ctx context.Context) ([]cloud.Model, error) {
		return nil, boom
	}))
	_, err := app.Models(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAppConfig_MergeModels(t *testing.T) {
	app := NewAppConfig(nil, nil)
	app.MergeModels([]cloud.Model{{ID: "a"}, {ID: "b"}})
	app.MergeModels([]cloud.Model{{ID: "b", Name: "Bee"}, {ID: "c"}})

	assert.Equal(t, []cloud.Model{{ID: "a"}, {ID: "b", Name: "Bee"}, {ID: "c"}}, app.MergedModels())

	app.MergeModels(nil)
	assert.Len(t, app.MergedModels(), 3)
}

func TestAppConfig_SetThemeNotifiesOnChange(t *testing.T) {
	app := NewAppConfig(nil, nil)
	var seen []string
	app.OnThemeChange(func(theme string) { seen = append(seen, theme) })

	app.SetTheme(ThemeDark)
	app.SetTheme(ThemeDark)
	app.SetTheme(ThemeLight)

	assert.Equal(t, []string{ThemeDark, ThemeLight}, seen)
	assert.Equal(t, ThemeLight, app.Theme())
}

func TestAppConfig_UpdateNotifiesOnAccentChange(t *testing.T) {
	app := NewAppConfig(nil, nil)
	calls := 0
	app.OnThemeChange(func(string) { calls++ })

	next := Default()
	app.Update(next)
	assert.Equal(t, 0, calls)

	next.UI.ThemeColor = "#000000"
	app.Update(next)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "#000000", app.ThemeColor())
}

func TestAppConfig_ConfigIsCopy(t *testing.T) {
	app := NewAppConfig(nil, nil)
	cfg := app.Config()
	cfg.UI.Theme = ThemeDark
	assert.Equal(t, ThemeAuto, app.Theme())
}

func TestAppConfig_ConcurrentAccess(t *testing.T) {
	app := NewAppConfig(nil, nil)
	app.OnThemeChange(func(string) {})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				app.SetTheme(ThemeDark)
			} else {
				app.SetTheme(ThemeLight)
			}
		}(i)
		go func() {
			defer wg.Done()
			_ = app.Theme()
			_ = app.MergedModels()
		}()
		go func(i int) {
			defer wg.Done()
			app.MergeModels([]cloud.Model{{ID: string(rune('a' + i%26))}})
		}(i)
	}
	wg.Wait()

	assert.Len(t, app.MergedModels(), 26)
}

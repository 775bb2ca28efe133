// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/siteassist/siteassist-widgets/internal/model"
)

func TestNewThemeModes(t *testing.T) {
	dark := NewTheme("dark", nil)
	if !dark.IsDark {
		t.Error("dark mode did not set IsDark")
	}

	light := NewTheme("light", nil)
	if light.IsDark {
		t.Error("light mode set IsDark")
	}
}

func TestBrandColorOverride(t *testing.T) {
	cfg := &model.WidgetConfig{
		BrandColor:     "#FF0000",
		BrandColorDark: "#00FF00",
	}

	light := NewTheme("light", cfg)
	if light.Brand != lipgloss.Color("#FF0000") {
		t.Errorf("light brand = %v", light.Brand)
	}

	dark := NewTheme("dark", cfg)
	if dark.Brand != lipgloss.Color("#00FF00") {
		t.Errorf("dark brand = %v", dark.Brand)
	}
}

func TestDarkFallsBackToLightBrand(t *testing.T) {
	cfg := &model.WidgetConfig{BrandColor: "#123456"}
	dark := NewTheme("dark", cfg)
	if dark.Brand != lipgloss.Color("#123456") {
		t.Errorf("brand = %v, want light value reused", dark.Brand)
	}
}

func TestNoConfigUsesDefaults(t *testing.T) {
	theme := NewTheme("light", nil)
	if theme.Brand != Indigo {
		t.Errorf("brand = %v, want default Indigo", theme.Brand)
	}
}

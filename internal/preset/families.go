package preset

// easingNone disables an animated property.
func easingNone() map[string]any {
	return map[string]any{"easing": "mutation"}
}

// ThemePresets are the built-in context menu layout presets. The family is
// shared; Apply never hands out its maps.
var ThemePresets = Family{
	{Name: Default},
	{Name: "compact", Values: map[string]any{
		"radius":               4.0,
		"item_height":          20.0,
		"item_gap":             2.0,
		"item_radius":          3.0,
		"margin":               4.0,
		"padding":              4.0,
		"text_padding":         6.0,
		"icon_padding":         3.0,
		"right_icon_padding":   16.0,
		"multibutton_line_gap": -4.0,
	}},
	{Name: "relaxed", Values: map[string]any{
		"radius":               6.0,
		"item_height":          24.0,
		"item_gap":             4.0,
		"item_radius":          8.0,
		"margin":               6.0,
		"padding":              6.0,
		"text_padding":         8.0,
		"icon_padding":         4.0,
		"right_icon_padding":   20.0,
		"multibutton_line_gap": -6.0,
	}},
	{Name: "rounded", Values: map[string]any{
		"radius":      12.0,
		"item_radius": 12.0,
	}},
	{Name: "square", Values: map[string]any{
		"radius":      0.0,
		"item_radius": 0.0,
	}},
}

// AnimationPresets are the built-in presets for theme.animation.
var AnimationPresets = Family{
	{Name: Default},
	{Name: "fast", Values: map[string]any{
		"item": map[string]any{
			"opacity": map[string]any{"delay_scale": 0.0},
			"width":   easingNone(),
			"x":       easingNone(),
		},
		"submenu_bg": map[string]any{
			"opacity": map[string]any{"delay_scale": 0.0, "duration": 100.0},
		},
		"main_bg": map[string]any{
			"opacity": easingNone(),
		},
	}},
	{Name: "none", Values: map[string]any{
		"item": map[string]any{
			"opacity": easingNone(),
			"width":   easingNone(),
			"x":       easingNone(),
			"y":       easingNone(),
		},
		"submenu_bg": map[string]any{
			"opacity": easingNone(),
			"x":       easingNone(),
			"y":       easingNone(),
			"w":       easingNone(),
			"h":       easingNone(),
		},
		"main_bg": map[string]any{
			"opacity": easingNone(),
			"x":       easingNone(),
			"y":       easingNone(),
			"w":       easingNone(),
			"h":       easingNone(),
		},
	}},
}

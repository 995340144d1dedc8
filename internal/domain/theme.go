package domain

// Theme is the persisted display preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Normalize maps anything other than dark to light
func (t Theme) Normalize() Theme {
	if t == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggled returns the opposite theme
func (t Theme) Toggled() Theme {
	if t.Normalize() == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

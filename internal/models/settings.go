package models

const (
	DefaultCurrency = "EUR"
)

type Settings struct {
	UserID            int64
	Currency          string
	DarkMode          bool
	AbbreviatedFormat bool
}

// SettingsPatch carries partial updates; nil fields are left untouched.
type SettingsPatch struct {
	Currency          *string
	DarkMode          *bool
	AbbreviatedFormat *bool
}

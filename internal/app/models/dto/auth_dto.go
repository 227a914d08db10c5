package dto

// TokenResponse is returned by the development login
type TokenResponse struct {
	AccessToken string              `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIs..."`
	TokenType   string              `json:"tokenType" example:"Bearer"`
	ExpiresIn   int                 `json:"expiresIn" example:"43200"`
	User        UserProfileResponse `json:"user"`
}

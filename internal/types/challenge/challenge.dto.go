package challenge

// Numeric fields are pointers so an omitted field can be told apart from 0.
// The yaml tags let seed files reuse the request shape.
type CreateChallengeRequest struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	NumDays     *int     `json:"numDays" yaml:"numDays"`
	Measurement string   `json:"measurement" yaml:"measurement"`
	Goal        *float64 `json:"goal" yaml:"goal"`
}

type JoinChallengeRequest struct {
	ChallengeID string `json:"challengeId"`
	Overwrite   bool   `json:"overwrite"`
}

type LedgerRequest struct {
	UserID      string `json:"userId"`
	ChallengeID string `json:"challengeId"`
}

type UpdateDayRequest struct {
	UserID      string   `json:"userId"`
	ChallengeID string   `json:"challengeId"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

type LedgerResponse struct {
	ChallengeID string `json:"challengeId"`
	UserID      string `json:"userId"`
	Days        Days   `json:"days"`
}

type InviteResponse struct {
	ChallengeID  string `json:"challengeId"`
	DeepLink     string `json:"deepLink"`
	QrCodeBase64 string `json:"qrCodeBase64"`
}

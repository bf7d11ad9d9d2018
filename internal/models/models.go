package models

type User struct {
	ID               int64
	Email            string
	PassHash         []byte
	RefreshTokenHash string
}

// * TemporaryCode одноразовый код подтверждения, отправленный на Email.
type TemporaryCode struct {
	ID    string
	Code  int
	Email string
}

type Message struct {
	Email   string `json:"to"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

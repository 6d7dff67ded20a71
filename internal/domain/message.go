package domain

// Message types exchanged between the shell and its child applications.
const (
	SyncAuthType = "syncAuth"
	AuthAckType  = "authAck"
)

// Usuario is the identity summary pushed to child applications.
type Usuario struct {
	Matricula string `json:"matricula"`
	Email     string `json:"email"`
	Nome      string `json:"nome"`
}

// SyncAuth carries a fresh bearer token into a child application.
type SyncAuth struct {
	Type    string  `json:"type"`
	Usuario Usuario `json:"usuario"`
	IDToken string  `json:"idToken"`
}

// NewSyncAuth builds the message for an identity and token.
func NewSyncAuth(id Identity, token string) SyncAuth {
	return SyncAuth{
		Type: SyncAuthType,
		Usuario: Usuario{
			Matricula: id.Handle(),
			Email:     id.Email,
			Nome:      id.Name,
		},
		IDToken: token,
	}
}

// AuthAck is sent back by a child application once it has stored the token of a SyncAuth.
type AuthAck struct {
	Type  string `json:"type"`
	Route string `json:"route"`
	Nonce string `json:"nonce"`
}

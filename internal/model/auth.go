package model

// AccessToken is the object signed into the access tokens issued by the identity provider.
type AccessToken struct {
	ID string `json:"id"`
}

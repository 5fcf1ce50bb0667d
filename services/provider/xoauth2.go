package provider

import (
	"github.com/emersion/go-sasl"
)

const xoauth2Mechanism = "XOAUTH2"

// xoauth2Client implements the single-step XOAUTH2 exchange used by Gmail and Office 365.
type xoauth2Client struct {
	username string
	token    string
}

func newXOAuth2Client(username, token string) sasl.Client {
	return &xoauth2Client{username: username, token: token}
}

func (c *xoauth2Client) Start() (string, []byte, error) {
	ir := []byte("user=" + c.username + "\x01auth=Bearer " + c.token + "\x01\x01")
	return xoauth2Mechanism, ir, nil
}

// Next answers a server error challenge with an empty response so the server can finish
// the exchange with a tagged NO.
func (c *xoauth2Client) Next(challenge []byte) ([]byte, error) {
	return []byte{}, nil
}

package config

import (
	"fmt"
	"strings"

	"github.com/pion/webrtc/v3"
)

type Webrtc struct {
	IceServers []IceServer
}

type IceServer struct {
	Urls       string `json:"urls,omitempty"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
}

func (s IceServer) isTurn() bool {
	return strings.HasPrefix(s.Urls, "turn:") || strings.HasPrefix(s.Urls, "turns:")
}

// Validate checks that every TURN server has its credentials.
func (w *Webrtc) Validate() error {
	for _, ice := range w.IceServers {
		if ice.Urls == "" {
			return fmt.Errorf("ice server without urls: %+v", ice)
		}
		if ice.isTurn() && (ice.Username == "" || ice.Credential == "") {
			return fmt.Errorf("TURN or TURNS servers should have both username and credential: %+v", ice)
		}
	}
	return nil
}

// ICEServers converts the config list into the form browsers
// pass to RTCPeerConnection.
func (w *Webrtc) ICEServers() []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(w.IceServers))
	for _, ice := range w.IceServers {
		server := webrtc.ICEServer{URLs: strings.Split(ice.Urls, ","), Username: ice.Username}
		if ice.Credential != "" {
			server.Credential = ice.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, server)
	}
	return servers
}

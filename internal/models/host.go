package models

import (
	"fmt"
)

type HostKind string

const (
	HostEvent      HostKind = "event"
	HostDiscussion HostKind = "discussion"
)

func (k HostKind) Valid() bool {
	return k == HostEvent || k == HostDiscussion
}

// Host identifies the single entity a comment hangs off.
type Host struct {
	Kind HostKind `json:"kind"`
	ID   uint     `json:"id"`
}

func EventHost(id uint) Host {
	return Host{Kind: HostEvent, ID: id}
}

func DiscussionHost(id uint) Host {
	return Host{Kind: HostDiscussion, ID: id}
}

func (h Host) String() string {
	return fmt.Sprintf("%s #%d", h.Kind, h.ID)
}

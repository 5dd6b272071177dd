package entities

import "time"

// MirrorKey identifies the relayed source message a record belongs to.
type MirrorKey struct {
	SourceChannelID string `json:"sourceChannelId"`
	SourceMessageID string `json:"sourceMessageId"`
}

// MirrorRecord is the correspondence between one relayed source message and
// its mirrored copies. It is created when a message is first relayed and
// consulted by the edit, delete, and reaction propagation paths.
type MirrorRecord struct {
	Key       MirrorKey `json:"key"`
	GroupName string    `json:"group"`
	// Mirrors maps target channel ID to the mirrored message ID in that channel.
	Mirrors   map[string]string `json:"mirrors"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewMirrorRecord returns an empty record for a source message.
func NewMirrorRecord(key MirrorKey, groupName string) *MirrorRecord {
	return &MirrorRecord{
		Key:       key,
		GroupName: groupName,
		Mirrors:   make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}
}

// ThreadMirrorRecord tracks the threads mirrored for one source thread,
// keyed by target parent channel.
type ThreadMirrorRecord struct {
	SourceThreadID string `json:"sourceThreadId"`
	Name           string `json:"name"`
	// Mirrors maps target parent channel ID to the mirrored thread ID.
	Mirrors map[string]string `json:"mirrors"`
}

// NewThreadMirrorRecord returns an empty record for a source thread.
func NewThreadMirrorRecord(threadID, name string) *ThreadMirrorRecord {
	return &ThreadMirrorRecord{
		SourceThreadID: threadID,
		Name:           name,
		Mirrors:        make(map[string]string),
	}
}

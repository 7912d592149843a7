// internal/apperrors/errors.go
package apperrors

import (
	"fmt"
	"strings"
)

// ErrCampaignNotFound is returned by repositories on a missing campaign id.
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrContactNotFound is returned by repositories on a missing contact id.
type ErrContactNotFound struct {
	ContactID string
}

func (e *ErrContactNotFound) Error() string {
	return fmt.Sprintf("contact %s not found", e.ContactID)
}

func NewContactNotFound(id string) error {
	return &ErrContactNotFound{ContactID: id}
}

// ErrContactInUse rejects deleting a contact that campaign history still
// references.
type ErrContactInUse struct {
	ContactID string
}

func (e *ErrContactInUse) Error() string {
	return fmt.Sprintf("contact %s is referenced by campaign history", e.ContactID)
}

func NewContactInUse(id string) error {
	return &ErrContactInUse{ContactID: id}
}

// ErrInvalidState rejects an operation on a campaign whose status does not
// permit it, e.g. starting a campaign that is not in draft. Nothing is
// mutated when this is returned.
type ErrInvalidState struct {
	CampaignID string
	Status     string
	Op         string
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("campaign %s cannot be %s in status %q", e.CampaignID, e.Op, e.Status)
}

func NewInvalidState(campaignID, status, op string) error {
	return &ErrInvalidState{CampaignID: campaignID, Status: status, Op: op}
}

// ErrConfigurationMissing means the gateway is not usable at all: no message
// can succeed, so a run is aborted before any send is attempted.
type ErrConfigurationMissing struct {
	Missing []string
}

func (e *ErrConfigurationMissing) Error() string {
	return fmt.Sprintf("gateway configuration missing: %s", strings.Join(e.Missing, ", "))
}

func NewConfigurationMissing(missing ...string) error {
	return &ErrConfigurationMissing{Missing: missing}
}

// ErrMalformedRecipient means a contact's number normalized to nothing
// sendable. The message is failed without touching the gateway.
type ErrMalformedRecipient struct {
	Raw string
}

func (e *ErrMalformedRecipient) Error() string {
	return fmt.Sprintf("recipient %q does not normalize to a sendable identifier", e.Raw)
}

func NewMalformedRecipient(raw string) error {
	return &ErrMalformedRecipient{Raw: raw}
}

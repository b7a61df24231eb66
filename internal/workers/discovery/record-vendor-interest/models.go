// internal/workers/discovery/record-vendor-interest/models.go
package recordvendorinterest

import "time"

type Input struct {
	CoupleID   string `json:"coupleId"`
	VendorID   string `json:"vendorId"`
	Interested bool   `json:"interested"`
}

type Output struct {
	Acknowledged bool      `json:"acknowledged"`
	ViewedAt     time.Time `json:"viewedAt"`
}

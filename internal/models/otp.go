package models

import "time"

// OTPPurposeAudioUpload is the only purpose the standalone OTP collection
// currently serves.
const OTPPurposeAudioUpload = "audio_upload"

// OTP is a standalone one-time passcode record. Unlike the single-slot OTPs
// embedded on User, a verified row acts as a redeemable capability: the
// audio upload step consumes it by id without re-entering the code.
type OTP struct {
	ID        string
	UserID    string
	Email     string
	Code      string
	Purpose   string
	Verified  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Usable reports whether the code can still be verified.
func (o *OTP) Usable(now time.Time) bool {
	return !o.Verified && now.Before(o.ExpiresAt)
}

// Redeemable reports whether a verified code can still authorize an upload.
func (o *OTP) Redeemable(now time.Time) bool {
	return o.Verified && now.Before(o.ExpiresAt)
}

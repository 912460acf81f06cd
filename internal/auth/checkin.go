package auth

import "time"

// CheckInSigner signs the QR check-in codes handed to members.
type CheckInSigner struct {
	secret string
}

func NewCheckInSigner(secret string) *CheckInSigner {
	return &CheckInSigner{secret: secret}
}

func (s *CheckInSigner) SignCheckIn(bookingID, userID int, expiresAt time.Time) (string, error) {
	return sign(&JWTClaims{
		UserID:    userID,
		BookingID: bookingID,
		TokenType: TokenTypeCheckIn,
	}, s.secret, expiresAt)
}

func (s *CheckInSigner) VerifyCheckIn(code string) (int, int, error) {
	claims, err := ValidateToken(code, s.secret)
	if err != nil {
		return 0, 0, err
	}
	if claims.TokenType != TokenTypeCheckIn || claims.BookingID <= 0 {
		return 0, 0, ErrInvalidTokenType
	}
	return claims.BookingID, claims.UserID, nil
}

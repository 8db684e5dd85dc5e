package auth

import "context"

// Logout removes the (userID, refreshToken) row from the ledger. A missing row
// is not an error. Access tokens already issued stay valid until they expire.
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	if userID == "" || refreshToken == "" {
		return nil
	}
	if err := s.ledger.DeleteByUserAndToken(ctx, userID, refreshToken); err != nil {
		return err
	}
	s.audit(ctx, "logout", map[string]string{"user_id": userID})
	return nil
}

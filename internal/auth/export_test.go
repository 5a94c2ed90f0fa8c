package auth

// Test-only accessors for unexported state used by the external auth_test package.

const TemporaryPasswordLength = temporaryPasswordLength

func DummyHash(s *Service) string { return s.dummyHash }

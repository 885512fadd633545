package credentials

// Stack composes the system keyring with the file-based fallback store.
// Reads consult the keyring first and fall through to the file store only
// when the keyring is unreachable (the operator consented when the secret
// was stored there). Writes target the keyring; deletes clear both so a
// secret cannot linger in the fallback after removal.
type Stack struct {
	Primary  Backend
	Fallback Backend
}

// DefaultStack returns the production credential stack. A file-store path
// resolution failure degrades to keyring-only.
func DefaultStack() Stack {
	s := Stack{Primary: SystemKeyring{}}
	if path, err := DefaultFileStorePath(); err == nil {
		s.Fallback = FileStore{Path: path}
	}
	return s
}

func (s Stack) Get(service, account string) Result {
	res := s.Primary.Get(service, account)
	if res.Status() == StatusUnavailable && s.Fallback != nil {
		return s.Fallback.Get(service, account)
	}
	return res
}

func (s Stack) Set(service, account, secret string) error {
	return s.Primary.Set(service, account, secret)
}

func (s Stack) Delete(service, account string) error {
	// Keyring may be unreachable; the fallback delete below still runs so
	// the entry cannot survive in the file store.
	err := s.Primary.Delete(service, account)
	if s.Fallback != nil {
		if ferr := s.Fallback.Delete(service, account); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

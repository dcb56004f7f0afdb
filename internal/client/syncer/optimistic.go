package syncer

// Optimistic applies a local change, then performs the remote call. When the
// call fails the change is reverted and the call's error returned. If apply
// reports that nothing changed, the call is skipped.
func Optimistic(apply func() bool, call func() error, revert func()) error {
	if !apply() {
		return nil
	}
	if err := call(); err != nil {
		revert()
		return err
	}
	return nil
}

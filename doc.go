// Package persist is a process-scoped, typed object persistence cache.
//
// A Cache lazily loads named objects from a record Store the first time they
// are requested, hands every caller the same pointer for the rest of the
// process lifetime, and writes all loaded objects back on Sync or when the
// attached exit hook fires.
//
//	store := persist.NewFileStore(ctx, "/var/lib/myapp")
//	hook := persist.NewExitHook()
//	c := persist.New(store, persist.WithExitHook(hook))
//
//	settings, err := persist.GetDefault[Settings](c)
//	if err != nil {
//		return err
//	}
//	settings.Theme = "dark"
//
//	<-hook.FireOn(ctx, os.Interrupt, syscall.SIGTERM) // flushes settings
package persist

// Package pager walks a paginated results grid to a given page.
//
// The portal's pager only shows a window of page numbers (1..10, then
// 11..20 after clicking "...") and offers no way back, so the walker only
// moves forward: click the target when it is visible, otherwise reveal the
// next window and look again. Every Goto is bounded by MaxAttempts.
//
//	w := pager.New(driver, log)
//	err := w.Goto(ctx, session, 25)
//	switch {
//	case errors.Is(err, pager.ErrPageOutOfRange):
//	    // results end before page 25
//	case err != nil:
//	    // pager failed, abort
//	}
package pager

package ledger

import "github.com/zendo/dispatch/internal/model"

// ActiveFor computes the single in-flight intervention relevant to a
// user: the first one, in ledger order, where the user is either the
// requesting client or the assigned artisan and the status is still
// active.  The result is re-derived on every call; the view owns no
// state.  Nothing stops a client from holding several active requests
// in the ledger; the view simply surfaces the most recent one.
func (l *Ledger) ActiveFor(userID string) (model.Intervention, bool) {
	if userID == "" {
		return model.Intervention{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, inv := range l.interventions {
		if (inv.ClientID == userID || inv.ArtisanID == userID) && inv.Status.Active() {
			return inv, true
		}
	}
	return model.Intervention{}, false
}

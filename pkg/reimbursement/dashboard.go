package reimbursement

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/expenseflow/reimbursement/pkg/auth"
)

// Stats are the dashboard counters. Pending and Total are only filled for
// identities allowed to read those lists; the Has flags say which.
type Stats struct {
	Mine       int
	Pending    int
	Total      int
	HasPending bool
	HasTotal   bool
}

// Dashboard fetches the counters the identity in state may see. The calls
// run concurrently and complete in any order.
func (c *Client) Dashboard(ctx context.Context, state auth.State) (Stats, error) {
	var st Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := c.ListMine(ctx)
		if err != nil {
			return err
		}
		st.Mine = len(items)
		return nil
	})

	if state.CanApprove() {
		st.HasPending = true
		g.Go(func() error {
			items, err := c.ListPending(ctx)
			if err != nil {
				return err
			}
			st.Pending = len(items)
			return nil
		})
	}

	if state.IsAdmin() {
		st.HasTotal = true
		g.Go(func() error {
			items, err := c.ListAll(ctx)
			if err != nil {
				return err
			}
			st.Total = len(items)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return st, nil
}

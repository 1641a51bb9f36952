package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/expenseflow/reimbursement/pkg/model"
	"github.com/expenseflow/reimbursement/pkg/reimbursement"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderDashboard(w io.Writer, who *model.Identity, st reimbursement.Stats) {
	if who != nil {
		fmt.Fprintf(w, "Welcome, %s (%s)\n\n", who.Name, who.Role)
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "My reimbursements\t%d\n", st.Mine)
	if st.HasPending {
		fmt.Fprintf(tw, "Pending approvals\t%d\n", st.Pending)
	}
	if st.HasTotal {
		fmt.Fprintf(tw, "Total reimbursements\t%d\n", st.Total)
	}
	tw.Flush()
}

func renderList(w io.Writer, items []model.Reimbursement, withRequester bool) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No reimbursements found.")
		return
	}
	tw := newTable(w)
	if withRequester {
		fmt.Fprintln(tw, "ID\tTITLE\tAMOUNT\tSTATUS\tREQUESTER\tCREATED")
	} else {
		fmt.Fprintln(tw, "ID\tTITLE\tAMOUNT\tSTATUS\tCREATED")
	}
	for _, r := range items {
		if withRequester {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n", r.ID, r.Title, r.Amount, r.Status, requesterName(r), r.CreatedAt.Local().Format(dateLayout))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n", r.ID, r.Title, r.Amount, r.Status, r.CreatedAt.Local().Format(dateLayout))
		}
	}
	tw.Flush()
}

func renderDetail(w io.Writer, r *model.Reimbursement, canApprove bool) {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\t%s\n", r.ID)
	fmt.Fprintf(tw, "Title\t%s\n", r.Title)
	if r.Description != "" {
		fmt.Fprintf(tw, "Description\t%s\n", r.Description)
	}
	fmt.Fprintf(tw, "Amount\t%.2f\n", r.Amount)
	fmt.Fprintf(tw, "Status\t%s\n", r.Status)
	fmt.Fprintf(tw, "Requested by\t%s\n", requesterName(*r))
	fmt.Fprintf(tw, "Created\t%s\n", r.CreatedAt.Local().Format(dateLayout))
	tw.Flush()

	if len(r.Approvals) > 0 {
		fmt.Fprintln(w, "\nHistory:")
		for _, ap := range r.Approvals {
			by := "unknown"
			if ap.Approver != nil {
				by = ap.Approver.Name
			}
			fmt.Fprintf(w, "  %s  %s by %s", ap.ApprovedAt.Local().Format(dateLayout), ap.Status, by)
			if ap.Comments != "" {
				fmt.Fprintf(w, ": %s", ap.Comments)
			}
			fmt.Fprintln(w)
		}
	}

	if canApprove && !r.Status.Terminal() {
		fmt.Fprintf(w, "\nDecide with `reimburse approve %s` or `reimburse reject %s --comments ...`.\n", r.ID, r.ID)
	}
}

func renderSummary(w io.Writer, s model.Summary) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	fmt.Fprintf(tw, "Pending\t%d\n", s.Pending)
	fmt.Fprintf(tw, "Approved\t%d\n", s.Approved)
	fmt.Fprintf(tw, "Rejected\t%d\n", s.Rejected)
	fmt.Fprintf(tw, "Approved amount\t%.2f\n", s.ApprovedAmount)
	tw.Flush()
}

func renderUsers(w io.Writer, users []*model.Identity) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	tw.Flush()
}

func requesterName(r model.Reimbursement) string {
	if r.Requester == nil {
		return "-"
	}
	return r.Requester.Name
}

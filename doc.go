// Package planner turns natural-language goals into capability calls with a
// human approval gate in front of every state changing action.
//
// A goal such as "review the last 5 chats and create a PR if scores are
// low" is parsed into an intent, conversations are retrieved and evaluated
// through remote capabilities, and a prompt change request is proposed when
// the scores call for it. The change request is recorded as a pending
// approval and submitted only after an approver accepts it:
//
//	srv, _ := planner.New(planner.WithConfig(cfg))
//	summary, _ := srv.Execute(ctx, "Review last 5 chats", nil)
//	fmt.Print(summary)
//
// Approvers inspect and decide requests through srv.Gateway() or the
// planner command line tool.
package planner

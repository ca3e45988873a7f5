// Package leadcapture forwards newly registered users as leads to a lead
// capture (marketing/CRM) server.
//
// The Relay validates its configuration, wraps a lead.Record in a
// {"lead": {...}} envelope and POSTs it through a pooled transport.Client
// authenticated by a static token. Every failure comes back as a typed error;
// nothing is retried.
//
// Event sources never call the Relay directly. A listener.NewUserListener
// builds the record and submits it to a dispatch.Dispatcher, whose workers
// call SendLead in the background so user creation is never blocked or failed
// by lead delivery.
//
// Quick start:
//
//	r, err := leadcapture.New(
//	    leadcapture.WithServerURL("https://community.example.com"),
//	    leadcapture.WithToken(os.Getenv("LEADCAPTURE_TOKEN")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rec := lead.FromUser(user, capture, profile)
//	if err := r.SendLead(ctx, user.UserName, rec); err != nil {
//	    slog.Error("lead not sent", "error", err)
//	}
package leadcapture

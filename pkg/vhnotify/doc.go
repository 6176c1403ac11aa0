// Package vhnotify turns a Valheim dedicated server log into player
// lifecycle notifications.
//
// The log never names a player, their account and their in-game object in
// the same line. An [Engine] stitches them together: every line is
// classified against a fixed rule table and each matching handler updates a
// single [State] (the connect and disconnect handshakes, the lifecycle of
// every character, the network trouble set) and returns the notifications
// the transition produces.
//
// # Watching a server
//
//	w, err := vhnotify.NewWatcherWithOptions(
//	    vhnotify.WithLogFile("/home/steam/valheim/valheim_server.log"),
//	    vhnotify.WithSink(sink),
//	    vhnotify.WithResolver(resolver),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	errs, err := w.Watch(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for err := range errs {
//	    log.Printf("watch: %v", err)
//	}
//
// Lines are processed strictly one at a time. Every notification produced
// by a line is rendered and handed to the [Sink] before the next line is
// read, so a slow sink slows the tail rather than reordering messages.
// Delivery is best-effort: a failed send is reported as a [DeliveryError]
// on the error channel and the message is dropped.
//
// # Offline replay
//
// [Replay] runs a complete log through a fresh engine, which is how the
// correlation rules are exercised against recorded server sessions.
package vhnotify

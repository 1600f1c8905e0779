// Package websocket pushes finished solver runs to browser and tool clients.
//
// A central Hub owns every connection and runs a single event loop, so the
// feed maps are only touched from that goroutine. Clients subscribe to one
// instance by name, or to every run with an empty name:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("instance"))
//	})
//
// Outgoing messages are JSON:
//
//	{"instance": "instance1", "event": "run_completed", "report": {...}}
//
// Incoming messages are read only to keep the connection alive. Slow
// clients whose send buffer fills up are dropped.
package websocket

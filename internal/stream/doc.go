// Package stream pushes the current exposition document to WebSocket clients
// on a fixed interval. It is a live debug view of /metrics: each broadcast
// frame is the exact byte output the exposition endpoint would return at that
// moment. Slow clients whose buffers fill up are disconnected rather than
// allowed to stall the broadcast.
package stream

// Package wake persists and re-arms the delivery alarm that revives the sync
// worker at the next eligible attempt time, across daemon restarts.
package wake

// Package events is the in-process message bus between the core and the
// presentation layer.
//
// Two message types travel on it: OpenDetail, asking for a movie's detail
// view, and Notify, a transient message with a severity and a lifetime
// (two seconds unless the publisher says otherwise). Each Notify carries a
// uuid so a renderer can expire exactly the toast it created.
//
// Delivery is synchronous. Publish runs every listener registered at the
// moment of the call before it returns; a listener that subscribes later
// does not see earlier messages. Listeners may unsubscribe while a message
// is being dispatched.
//
// A Bus is constructed explicitly and passed to whoever needs it, so tests
// and independent sessions never share one.
package events

// Package cli is the geodash terminal dashboard.
//
// One-shot commands (list, add, edit, delete) talk to the server directly.
// watch mounts a view.ViewState, redraws the user table whenever it changes
// and reads interactive commands from stdin until the user quits.
//
// Records may be referred to by a unique prefix of their id, as shown in the
// table.
package cli

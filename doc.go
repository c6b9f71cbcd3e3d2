// Package nslog is a namespaced logging facade. Each logger is bound to a
// name and carries its own severity level; a shared configuration holds a
// ceiling for those levels, an optional timestamp prefix and a pair of
// allow/deny lists matched against logger names. A message reaches the
// logger's sinks only if its severity is within the logger's level and the
// logger's name survives the allow/deny filter.
//
// The allow/deny lists of the default configuration are seeded from the
// DEBUG environment variable, a comma separated list of name fragments.
// Fragments prefixed with '-' deny, all others allow. A fragment wrapped in
// slashes, such as /^http/, is a regular expression.
//
//	DEBUG=Worker,-Noisy ./app
package nslog

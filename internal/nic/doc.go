// Package nic validates national identity card numbers. Two layouts are
// accepted: the new format of exactly 12 digits and the old format of 9 digits
// followed by a single letter (for example 123456789V).
package nic

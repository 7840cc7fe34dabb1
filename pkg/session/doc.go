/*
Package session serializes the turns of each client.

It combines per-client in-process mutexes with an optional distributed locker,
so that replicas sharing a snapshot store never process two turns of the same
client at once.
*/
package session

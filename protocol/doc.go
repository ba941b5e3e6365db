/*
Package protocol is the package for the protocol processors. The processors
implement the protocol state transitions and the handling of the inbound
messages. The protocol message implementations are located in the std
package.
*/
package protocol

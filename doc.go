/*
Package main is the credex agent: an issue-credential protocol engine with a
command line tool around it.

The agent runs the credential exchange of the issue-credential protocol
versions 1.0 and 2.0. A credential is exchanged in one or several formats at
the same time: indy (anoncreds), JSON-LD credentials with linked data proofs
and SD-JWT. The exchange is driven by the messages of the other party, by
the API calls of the controller and by the auto-accept policy of the agent.

# Commands

	credex serve    starts the agent with HTTP (and NATS) endpoints
	credex demo     runs an exchange between two in-process agents
	credex records  lists the exchange records of a stopped agent
	credex version  prints the version

All of the flags can be given in the environment with the CREDEX_ prefix or
in the config file, see credex --help.

# Packages

The protocol engine is in protocol/issuecredential. The agent/ packages are
the infrastructure the engine uses: storage backends, transports, keys and
the event bus. The std/ packages have the message formats.
*/
package main

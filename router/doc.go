// Package router implements the supervisor that maps a free-text query to a
// set of domain agents, runs them against a fresh request state and merges
// their namespaced outputs.
//
// # Routing
//
// A TriggerTable maps trigger phrases to agent names. Selection is a pure
// function of the query: phrases match case-insensitively as substrings, the
// union of matched agents is kept in declaration order without duplicates,
// and a query that matches nothing selects the Default set. A table without a
// default set is rejected when the Router is built (core.ErrRoutingAmbiguity).
//
// # Execution
//
// Each selected agent receives a read-only snapshot of the state and runs
// under its own timeout. In Sequential mode agents run one after another; in
// Concurrent mode they fan out through an errgroup with an optional limit.
// Outputs are merged in invocation order only after every agent returned, so
// the accumulated recommendations and action items are ordered the same way
// in both modes.
//
// Errors, timeouts, panics and namespace violations never abort a request:
// the failing agent's key receives an error marker and the remaining agents
// continue.
//
// # Example
//
//	r, err := router.New(table, agents,
//	    router.WithTimeout(10*time.Second),
//	    router.WithMode(router.Concurrent),
//	)
//	if err != nil {
//	    return err
//	}
//	st, err := r.Route(ctx, router.Request{Query: "What should Michael eat before the meet?"})
//	fmt.Println(router.Summarize(st).PrimaryResponse)
package router

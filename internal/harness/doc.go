// Package harness runs declarative equality-sharing scenarios against the
// combination engine.
//
// A scenario names the terms, the theories (with scripted endpoints and
// exports), the atoms each theory owns, the sharing policy and the number
// of rounds to run. The harness builds a fresh engine for every run, drives
// the rounds, and checks the observed trace against the scenario's
// expectations.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: uf_dl_basic
//	description: "UF learns a = b and DL imports it"
//
//	terms:
//	  - name: a
//	  - name: b
//	  - name: ua
//	    eq: [a, b]
//	  - name: fa
//	    fn: f
//	    args: [a]
//	    sort: U
//
//	theories:
//	  - name: UF
//	    endpoints:
//	      ua: [a, b]
//	    exports:
//	      - - {a: a, b: b, lits: [3]}   # round 0
//	  - name: ARR
//	    sharing: false                 # contributes endpoints only
//
//	atoms:
//	  - {term: ua, theory: UF}
//	  - {term: da, theory: DL, round: 1}   # added before round 1
//
//	sharing:
//	  rules:
//	    - {from: UF, to: DL, allow: true}
//
//	rounds: 1
//
//	expect:
//	  epoch: 1
//	  shared: [a, b]
//	  events: 1
//	  diagnostics: 1
//	  hops:
//	    - {from: UF, to: DL, a: a, b: b}
//	  no_hops:
//	    - {from: DL, to: UF}            # no delivery in that direction
//	  imports:
//	    DL:
//	      - {a: a, b: b, because: [3]}
//
// Literals are DIMACS integers: 3 is v3, -3 is ¬v3. A single literal
// becomes a leaf explanation; several become their conjunction.
//
// A debug block, when present, replaces the default diagnostics settings
// wholesale.
//
// # Deterministic Testing
//
// Term handles are issued in declaration order and theories are
// registered in file order, so the trace of a scenario is identical across
// runs. RunWithGolden compares the rendered trace against
// testdata/golden/<name>.golden:
//
//	go test ./internal/harness -update
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/uf_dl_basic.yaml")
//	if err != nil {
//	    return err
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    return err
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        fmt.Println(msg)
//	    }
//	}
package harness

package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	poker "github.com/paulhankin/poker"

	"sealedtable/server/escrow"
	"sealedtable/server/table"
)

//
// ===== exhibition cards =====
//

type card struct {
	rank int  // 2..14, Ace=14
	suit byte // c d h s
}

func (c card) String() string {
	ranks := "  23456789TJQKA"
	return fmt.Sprintf("%c%c", ranks[c.rank], c.suit)
}

func newDeck(seed int64) []card {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	var deck []card
	for s := 0; s < 4; s++ {
		for rnk := 2; rnk <= 14; rnk++ {
			deck = append(deck, card{rank: rnk, suit: "cdhs"[s]})
		}
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

func toPH(c card) poker.Card {
	var s poker.Suit
	switch c.suit {
	case 'c':
		s = poker.Club
	case 'd':
		s = poker.Diamond
	case 'h':
		s = poker.Heart
	default:
		s = poker.Spade
	}
	// Our ranks: 2..14 (Ace=14). Library: 1..13 (Ace=1).
	var r poker.Rank
	if c.rank == 14 {
		r = poker.Rank(1)
	} else {
		r = poker.Rank(c.rank)
	}
	pc, _ := poker.MakeCard(s, r)
	return pc
}

// eval5 scores a 5-card hand; larger is stronger.
func eval5(cards []card) int16 {
	var a5 [5]poker.Card
	for i, c := range cards {
		a5[i] = toPH(c)
	}
	return poker.Eval5(&a5)
}

func describeHand(cards []card) string {
	pcs := make([]poker.Card, len(cards))
	for i, c := range cards {
		pcs[i] = toPH(c)
	}
	if d, err := poker.Describe(pcs); err == nil {
		return d
	}
	return fmt.Sprint(cards)
}

//
// ===== exhibition run =====
//

// runExhibition drives one full session lifecycle in-process: create, two
// joins (activation), a raise and a call, partial then full reveals, and a
// normal settlement. Each exhibition player holds local plaintext cards and
// reveals the mask of ten-or-better cards; the manager only ever sees the
// sealed state and the reveal masks.
func runExhibition(m *table.Manager, vault *escrow.Ledger, cfg Config) {
	section("EXHIBITION")

	seed := cfg.DealSeed
	wager := uint64(atoiDef(os.Getenv("EXHIBITION_WAGER"), 100))
	deck := newDeck(seed)

	id, err := m.CreateSession(table.FiveCard, 4, table.WagerFloor)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("session %s created (%s, capacity 4)", bold(fmt.Sprint(id)), cyan(table.FiveCard.String()))

	players := []string{"alice", "bob"}
	hands := map[string][]card{}
	for _, who := range players {
		hands[who] = append([]card{}, deck[:5]...)
		deck = deck[5:]
		if err := m.Join(id, who, wager, true); err != nil {
			log.Fatal(err)
		}
		snap, _ := m.GetSession(id)
		log.Printf("%s joined with %d → pot=%d phase=%s", cyan(who), wager, snap.Pot, snap.Phase)
	}

	if err := m.Act(id, "bob", false, true, false, wager/2); err != nil {
		log.Fatal(err)
	}
	log.Printf("%s raises %d", cyan("bob"), wager/2)
	if err := m.Act(id, "alice", true, false, false, wager/2); err != nil {
		log.Fatal(err)
	}
	log.Printf("%s calls %d", cyan("alice"), wager/2)

	for _, who := range players {
		mask := make([]bool, 5)
		for i, c := range hands[who] {
			mask[i] = c.rank >= 10
		}
		// partial first, then the full mask — both are legal reveals
		if err := m.Reveal(id, who, mask[:3]); err != nil {
			log.Fatal(err)
		}
		if err := m.Reveal(id, who, mask); err != nil {
			log.Fatal(err)
		}
		log.Printf("%s reveals %v  hand: %v (%s)", cyan(who), mask, hands[who], dim(describeHand(hands[who])))
	}

	snap, _ := m.GetSession(id)
	log.Printf("pot before settlement: %s", bold(fmt.Sprint(snap.Pot)))

	if err := m.Settle(id, cfg.Admin); err != nil {
		log.Printf("%s (%v) — falling back to emergency teardown", bad("settle failed"), err)
		if err := m.EmergencyEnd(id, cfg.Admin); err != nil {
			log.Fatal(err)
		}
	}

	snap, _ = m.GetSession(id)
	log.Printf("session %d: phase=%s pot=%d", id, good(snap.Phase), snap.Pot)
	for _, who := range players {
		log.Printf("%s paid out: %s", cyan(who), bold(fmt.Sprint(vault.Paid(who))))
	}

	// Poker-rank the exhibition hands for the closing line.
	a, b := eval5(hands["alice"]), eval5(hands["bob"])
	switch {
	case a > b:
		log.Printf("exhibition showdown: %s", good("alice has the stronger poker hand"))
	case b > a:
		log.Printf("exhibition showdown: %s", good("bob has the stronger poker hand"))
	default:
		log.Printf("exhibition showdown: %s", warn("dead heat"))
	}
}

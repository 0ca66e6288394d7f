package card

import "strings"

type CardList []Card

func (ds *CardList) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

func (ds CardList) Clone() CardList {
	if ds == nil {
		return nil
	}
	out := make(CardList, len(ds))
	copy(out, ds)
	return out
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

// PopCard 从牌堆末尾取一张
func (ds *CardList) PopCard() Card {
	totalCount := ds.Count()
	if totalCount == 0 {
		return CardInvalid
	}
	card := (*ds)[totalCount-1]
	*ds = (*ds)[:totalCount-1]
	return card
}

// PopCards takes size cards off the end, in pop order.
func (ds *CardList) PopCards(size int) ([]Card, bool) {
	if size < 0 || size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	for i := range cards {
		cards[i] = ds.PopCard()
	}
	return cards, true
}

func (ds CardList) Contains(c Card) bool {
	for _, cc := range ds {
		if cc == c {
			return true
		}
	}
	return false
}

func (ds CardList) Strings() []string {
	out := make([]string, len(ds))
	for i, c := range ds {
		out[i] = c.String()
	}
	return out
}

func (ds CardList) String() string {
	return strings.Join(ds.Strings(), " ")
}

// ParseList parses a space separated list such as "As Kd 7c".
func ParseList(s string) (CardList, error) {
	fields := strings.Fields(s)
	out := make(CardList, 0, len(fields))
	for _, f := range fields {
		c, err := Parse(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

package sensego_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/sensego"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
)

func sense(id string, symbols ...string) model.Sense {
	return model.Sense{ID: id, Signature: model.SignatureOf(symbols...)}
}

// Example demonstrates disambiguating a short sentence with the overlap
// measure.
func Example() {
	doc := model.NewDocument("bank",
		model.Word{ID: "w0", Lemma: "bank", Senses: []model.Sense{
			sense("bank.river", "river", "slope", "water"),
			sense("bank.money", "money", "deposit", "institution"),
		}},
		model.Word{ID: "w1", Lemma: "deposit", Senses: []model.Sense{
			sense("deposit.money", "money", "bank", "account"),
			sense("deposit.sediment", "sediment", "river", "layer"),
		}},
		model.Word{ID: "w2", Lemma: "interest", Senses: []model.Sense{
			sense("interest.money", "money", "rate", "account"),
			sense("interest.hobby", "hobby", "curiosity"),
		}},
	)

	eng, err := sensego.New(similarity.NewOverlap(),
		sensego.WithStrategy(strategy.Genetic),
		sensego.WithBudget(stop.Iterations(50)),
		sensego.WithRandomSeed(42),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	res, err := eng.Disambiguate(context.Background(), doc)
	if err != nil {
		log.Fatal(err)
	}
	for i, s := range res.Senses {
		fmt.Println(doc.Word(i).Lemma, doc.Senses(i)[s].ID)
	}
	// Output:
	// bank bank.money
	// deposit deposit.money
	// interest interest.money
}

package config

import "github.com/nstehr/vimy/vimy-tactics/model"

// Default returns the built-in tunables for a zerg-style agent.
func Default() Config {
	return Config{
		Targeting: Targeting{
			HighValue: []string{
				"siegetank", "siegetanksieged", "colossus", "disruptor", "hightemplar",
				"infestor", "viper", "ghost", "thor", "battlecruiser", "carrier",
				"mothership", "tempest", "lurkermp", "lurkermpburrowed", "baneling",
				"widowmine", "widowmineburrowed", "liberatorag",
			},
			LowPriority: []string{
				"larva", "egg", "broodling", "locustmp", "interceptor", "adeptphaseshift",
				"changeling", "changelingmarine", "changelingmarineshield",
				"changelingzealot", "changelingzergling", "changelingzerglingwings",
			},
		},
		Repulsion: Repulsion{
			Enemy:     Field{Weight: 1.0, Radius: 6},
			Structure: Field{Weight: 0.5, Radius: 4},
			Terrain:   Field{Weight: 0.6, Radius: 3},
			Splash:    Field{Weight: 1.5, Radius: 9},
			SplashTypes: []string{
				"siegetanksieged", "colossus", "baneling", "disruptorphased",
				"widowmineburrowed", "hightemplar", "lurkermpburrowed", "thor", "archon",
			},
			SteerThreshold: 0.5,
			SteerStep:      3,
		},
		Rally: Rally{
			ForwardStep:    10,
			GatherDistance: 8,
			TightDistance:  5,
			GatheredRatio:  0.7,
		},
		Formation: Formation{
			EffectiveRange: 6,
			MeleeScreen:    2,
			MeleeRange:     1.5,
			OutnumberRatio: 1.5,
			ClusterSpread:  4,
		},
		Destroyer: Destroyer{
			Townhall: []string{
				"hatchery", "lair", "hive", "commandcenter", "orbitalcommand",
				"planetaryfortress", "nexus",
			},
			Production: []string{
				"barracks", "factory", "starport", "gateway", "warpgate",
				"roboticsfacility", "stargate",
			},
			Tech: []string{
				"engineeringbay", "armory", "fusioncore", "ghostacademy", "forge",
				"cyberneticscore", "twilightcouncil", "templararchive", "darkshrine",
				"roboticsbay", "fleetbeacon", "spawningpool", "roachwarren", "banelingnest",
				"hydraliskden", "lurkerdenmp", "spire", "greaterspire", "infestationpit",
				"ultraliskcavern", "evolutionchamber",
			},
			StaticDefense: []string{
				"bunker", "missileturret", "photoncannon", "shieldbattery",
				"spinecrawler", "sporecrawler",
			},
			MinUnitsPerTarget: 3,
			MinArmySupply:     30,
		},
		Prong: Prong{
			MinArmySupply:     60,
			HarassTypes:       []string{"zergling"},
			MinHarass:         12,
			MainShare:         0.7,
			ArmyCacheSeconds:  2,
			MineralLineOffset: 7,
		},
		Tech: Tech{
			Structures: map[string]model.Cost{
				"hatchery":         {Minerals: 300},
				"extractor":        {Minerals: 25},
				"spawningpool":     {Minerals: 200},
				"evolutionchamber": {Minerals: 75},
				"roachwarren":      {Minerals: 150},
				"banelingnest":     {Minerals: 100, Vespene: 50},
				"spinecrawler":     {Minerals: 100},
				"sporecrawler":     {Minerals: 75},
				"lair":             {Minerals: 150, Vespene: 100},
				"hydraliskden":     {Minerals: 100, Vespene: 100},
				"spire":            {Minerals: 200, Vespene: 200},
				"infestationpit":   {Minerals: 100, Vespene: 100},
			},
			MultiInstance: []string{
				"hatchery", "extractor", "spinecrawler", "sporecrawler", "evolutionchamber",
			},
		},
		Production: Production{
			Units: map[string]UnitSpec{
				"drone":     {Producer: "larva", Cost: model.Cost{Minerals: 50, Supply: 1}},
				"overlord":  {Producer: "larva", Cost: model.Cost{Minerals: 100}},
				"zergling":  {Producer: "larva", Cost: model.Cost{Minerals: 50, Supply: 1}},
				"roach":     {Producer: "larva", Cost: model.Cost{Minerals: 75, Vespene: 25, Supply: 2}},
				"hydralisk": {Producer: "larva", Cost: model.Cost{Minerals: 100, Vespene: 50, Supply: 2}},
				"mutalisk":  {Producer: "larva", Cost: model.Cost{Minerals: 100, Vespene: 100, Supply: 2}},
				"queen":     {Producer: "hatchery", Cost: model.Cost{Minerals: 150, Supply: 2}},
			},
			MaxPerTick: 50,
			Supply: SupplyPolicy{
				Unit:           "overlord",
				Provides:       8,
				Priority:       1000,
				Buffer:         2,
				EarlySeconds:   240,
				EarlyBuffer:    4,
				GasOverflow:    600,
				OverflowBuffer: 8,
			},
			Authority: []AuthorityMode{
				{Name: "defense", When: "EnemiesNearBase(25) >= 4", Favor: []string{"defense"}, Bias: 50},
				{Name: "economy", When: "GameTime() < 240 && WorkerCount() < 30", Favor: []string{"economy"}, Bias: 20},
			},
		},
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/annel0/voxel-storage/internal/config"
	"github.com/annel0/voxel-storage/internal/storage"
	"github.com/annel0/voxel-storage/internal/vec"
	"github.com/annel0/voxel-storage/internal/world/blockstore"
)

func main() {
	var (
		dataDir = flag.String("data", config.Default().Storage.DataDir, "каталог BadgerDB")
		command = flag.String("cmd", "stats", "Command: keys, stats, dump")
		coord   = flag.String("chunk", "0,0,0", "координаты чанка для dump (x,y,z)")
	)
	flag.Parse()

	repo, err := storage.NewBadgerChunkRepo(*dataDir)
	if err != nil {
		log.Fatalf("❌ Failed to open store: %v", err)
	}
	defer repo.Close()

	codec, err := storage.NewCodec(0)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer codec.Close()

	ctx := context.Background()
	switch *command {
	case "keys":
		err = listKeys(ctx, repo)
	case "stats":
		err = printStats(ctx, repo, codec)
	case "dump":
		var c vec.Vec3
		c, err = parseCoord(*coord)
		if err == nil {
			err = dumpChunk(ctx, repo, codec, c)
		}
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func sortedKeys(ctx context.Context, repo storage.ChunkRepo) ([]vec.Vec3, error) {
	keys, err := repo.Keys(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys, nil
}

func listKeys(ctx context.Context, repo storage.ChunkRepo) error {
	keys, err := sortedKeys(ctx, repo)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Println(storage.ChunkKey(k))
	}
	return nil
}

// printStats выводит по строке на чанк и итог по представлениям
func printStats(ctx context.Context, repo storage.ChunkRepo, codec *storage.Codec) error {
	keys, err := sortedKeys(ctx, repo)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHUNK\tKIND\tPALETTE\tMEMORY\tSTORED")

	kinds := make(map[blockstore.Kind]int)
	var totalMem, totalStored uint64
	for _, k := range keys {
		data, _, err := repo.Load(ctx, k)
		if err != nil {
			return err
		}
		s, err := codec.Decode(data)
		if err != nil {
			fmt.Fprintf(w, "%v\tCORRUPT\t-\t-\t%s\n", k, humanize.Bytes(uint64(len(data))))
			continue
		}
		mem, _ := s.MemoryUsage()
		kinds[s.Kind()]++
		totalMem += uint64(mem)
		totalStored += uint64(len(data))
		fmt.Fprintf(w, "%v\t%s\t%d\t%s\t%s\n", k, s.Kind(), len(s.Palette()),
			humanize.Bytes(uint64(mem)), humanize.Bytes(uint64(len(data))))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%s чанков, в памяти %s, на диске %s\n",
		humanize.Comma(int64(len(keys))), humanize.Bytes(totalMem), humanize.Bytes(totalStored))
	for kind := blockstore.KindUniform; kind <= blockstore.KindRLE; kind++ {
		if n := kinds[kind]; n > 0 {
			fmt.Printf("  %-8s %d\n", kind, n)
		}
	}
	return nil
}

// dumpChunk печатает палитру и серии одного чанка
func dumpChunk(ctx context.Context, repo storage.ChunkRepo, codec *storage.Codec, coord vec.Vec3) error {
	data, found, err := repo.Load(ctx, coord)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("chunk %v not found", coord)
	}
	s, err := codec.Decode(data)
	if err != nil {
		return err
	}

	mem, _ := s.MemoryUsage()
	fmt.Printf("Chunk %v: %s, %d различных блоков, %s\n", coord, s.Kind(), s.DistinctCount(), humanize.Bytes(uint64(mem)))
	for i, b := range s.Palette() {
		fmt.Printf("  [%d] %+v\n", i, b)
	}

	cold := s
	if s.Kind() != blockstore.KindRLE {
		if rle, ok := s.ToRLE(); ok {
			cold = rle
		}
	}
	if cold.Kind() == blockstore.KindRLE {
		pal := cold.Palette()
		spans := cold.Spans()
		fmt.Printf("Серии (%s):\n", humanize.Comma(int64(len(spans))))
		for _, sp := range spans {
			fmt.Printf("  %d+%d -> %+v\n", sp.Start, sp.Length, pal[sp.Index])
		}
	}
	return nil
}

func parseCoord(s string) (vec.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("bad chunk coordinates %q", s)
	}
	var xyz [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("bad chunk coordinates %q: %w", s, err)
		}
		xyz[i] = n
	}
	return vec.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
